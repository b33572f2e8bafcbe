// Command discord-thread-bot watches promotion channels on Discord and opens a
// discussion thread for every new music or social link posted there.
// It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres for the thread history audit log.
//   - Builds the metadata resolvers and the per-message pipeline.
//   - Opens the Discord gateway and exposes /healthz, /readyz, /status and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/qqqqqqq1/discord-thread-bot/config"
	"github.com/qqqqqqq1/discord-thread-bot/db"
	"github.com/qqqqqqq1/discord-thread-bot/discord"
	"github.com/qqqqqqq1/discord-thread-bot/pipeline"
	"github.com/qqqqqqq1/discord-thread-bot/resolve"
	"github.com/qqqqqqq1/discord-thread-bot/server"
	"github.com/qqqqqqq1/discord-thread-bot/telemetry"
)

const (
	serviceName    = "discord-thread-bot"
	serviceVersion = "1.0.0"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateDiscordReady(); err != nil {
		slog.Error("discord not configured", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing(serviceName, serviceVersion)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional thread history
	var database *sql.DB
	if cfg.HistoryEnabled() {
		database, err = db.Connect(ctx, cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
	} else {
		slog.Info("thread history disabled (DB_DSN not set)")
	}

	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		slog.Warn("spotify credentials not set; spotify links will fail to resolve")
	}
	if cfg.YouTubeAPIKey == "" {
		slog.Warn("YOUTUBE_API_KEY not set; youtube links will fail to resolve")
	}
	resolvers := resolve.NewRegistry(resolve.Options{
		HTTPClient:          &http.Client{Timeout: cfg.FetchTimeout},
		YouTubeAPIKey:       cfg.YouTubeAPIKey,
		SpotifyClientID:     cfg.SpotifyClientID,
		SpotifyClientSecret: cfg.SpotifyClientSecret,
	})

	bot, err := discord.New(cfg.DiscordToken, nil)
	if err != nil {
		slog.Error("failed to create discord session", slog.Any("err", err))
		os.Exit(1)
	}
	pipe := pipeline.New(resolvers, bot.Session())
	pipe.ChannelToken = cfg.ChannelToken
	if database != nil {
		pipe.History = &db.HistoryStore{DB: database}
	}
	bot.SetHandler(pipe)

	if err := bot.Start(ctx); err != nil {
		slog.Error("discord start failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := bot.Stop(); err != nil {
			slog.Error("failed to close discord session", slog.Any("err", err))
		}
	}()
	slog.Info("watching channels", slog.String("token", cfg.ChannelToken))

	// HTTP server (health/status/metrics)
	go func() {
		deps := server.Deps{DB: database, Gateway: bot, Ledger: pipe.Ledger}
		if err := server.Start(ctx, deps, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
