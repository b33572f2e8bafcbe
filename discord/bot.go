// Package discord connects to the Discord gateway and feeds message events into the
// thread pipeline.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/qqqqqqq1/discord-thread-bot/pipeline"
	"github.com/qqqqqqq1/discord-thread-bot/telemetry"
)

// Intents requested from the gateway. Message content is privileged and must be
// enabled for the application in the developer portal.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// Handler consumes converted message events.
type Handler interface {
	Handle(ctx context.Context, msg pipeline.IncomingMessage) pipeline.Outcome
}

// Bot owns the gateway session.
type Bot struct {
	session   *discordgo.Session
	handler   Handler
	ctx       context.Context
	botUserID atomic.Value // string, set on ready
	connected atomic.Bool
}

// New creates a bot session for token. The session is not opened until Start.
func New(token string, h Handler) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = Intents
	return &Bot{session: session, handler: h, ctx: context.Background()}, nil
}

// Session exposes the underlying session; it satisfies threads.ThreadAPI.
func (b *Bot) Session() *discordgo.Session { return b.session }

// SetHandler replaces the message handler. Call before Start.
func (b *Bot) SetHandler(h Handler) { b.handler = h }

// Start registers event handlers and opens the gateway. ctx bounds the handlers
// started for each message.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onConnect)
	b.session.AddHandler(b.onDisconnect)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.setConnected(true)
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	slog.Info("stopping discord bot", slog.String("component", "discord"))
	b.setConnected(false)
	return b.session.Close()
}

// Connected reports whether the gateway is currently connected.
func (b *Bot) Connected() bool { return b.connected.Load() }

func (b *Bot) setConnected(v bool) {
	b.connected.Store(v)
	telemetry.UpdateConnectedGauge(v)
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		b.botUserID.Store(r.User.ID)
		slog.Info("discord bot connected", slog.String("username", r.User.Username), slog.String("id", r.User.ID), slog.Int("guilds", len(r.Guilds)), slog.String("component", "discord"))
	}
	b.setConnected(true)
}

func (b *Bot) selfID() string {
	id, _ := b.botUserID.Load().(string)
	return id
}

func (b *Bot) onConnect(_ *discordgo.Session, _ *discordgo.Connect) { b.setConnected(true) }

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	slog.Warn("discord gateway disconnected", slog.String("component", "discord"))
	b.setConnected(false)
}

// onMessageCreate runs on its own goroutine per event (discordgo's default).
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	if self := b.selfID(); m.Author.Bot || (self != "" && m.Author.ID == self) {
		return
	}
	if b.handler == nil {
		return
	}
	msg := ToIncoming(m.Message, channelName(s, m.ChannelID))
	b.handler.Handle(b.ctx, msg)
}

// ToIncoming converts a gateway message into the pipeline's snapshot.
func ToIncoming(m *discordgo.Message, channelName string) pipeline.IncomingMessage {
	author := ""
	if m.Author != nil {
		author = m.Author.Username
	}
	return pipeline.IncomingMessage{
		ID:               m.ID,
		ChannelID:        m.ChannelID,
		ChannelName:      channelName,
		GuildPresent:     m.GuildID != "",
		AuthorName:       author,
		Text:             m.Content,
		AlreadyHasThread: m.Thread != nil,
	}
}

// channelName looks the channel up in the state cache first and falls back to REST.
// Unknown channels yield "", which no eligibility check accepts.
func channelName(s *discordgo.Session, id string) string {
	if s == nil || id == "" {
		return ""
	}
	if s.State != nil {
		if ch, err := s.State.Channel(id); err == nil {
			return ch.Name
		}
	}
	ch, err := s.Channel(id)
	if err != nil {
		slog.Warn("failed to look up channel", slog.String("channel_id", id), slog.Any("err", err), slog.String("component", "discord"))
		return ""
	}
	return ch.Name
}
