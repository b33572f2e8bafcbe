// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// The Discord token is required to connect; use ValidateDiscordReady before opening the gateway.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/qqqqqqq1/discord-thread-bot/links"
)

type Config struct {
	// Discord
	DiscordToken string
	ChannelToken string

	// Providers
	SpotifyClientID     string
	SpotifyClientSecret string
	YouTubeAPIKey       string
	FetchTimeout        time.Duration

	// HTTP
	HTTPAddr string

	// Database (optional thread history)
	DBDsn string
}

// Load reads environment variables and applies defaults. It doesn't fail if provider credentials
// are missing; the affected resolver reports itself unconfigured when a link needs it.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.ChannelToken = os.Getenv("PROMOTION_CHANNEL_TOKEN")
	if cfg.ChannelToken == "" {
		cfg.ChannelToken = links.DefaultChannelToken
	}

	cfg.SpotifyClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	cfg.SpotifyClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")

	cfg.FetchTimeout = 30 * time.Second
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT (duration): %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT: must be positive, got %s", v)
		}
		cfg.FetchTimeout = d
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	// Empty DSN disables history.
	cfg.DBDsn = os.Getenv("DB_DSN")

	return cfg, nil
}

// ValidateDiscordReady checks the fields needed to connect to the gateway.
func (c *Config) ValidateDiscordReady() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("missing discord env: require DISCORD_TOKEN")
	}
	return nil
}

// HistoryEnabled reports whether a database is configured.
func (c *Config) HistoryEnabled() bool { return c.DBDsn != "" }
