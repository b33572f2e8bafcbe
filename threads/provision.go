package threads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

const (
	// AutoArchiveMinutes is the inactivity period after which a thread archives (7 days).
	AutoArchiveMinutes = 10080

	// DefaultReason is the audit log reason attached to every created thread.
	DefaultReason = "Creating thread for promotion message with a media link"

	// codeThreadAlreadyCreated is Discord's JSON error code for "A thread has already
	// been created for this message".
	codeThreadAlreadyCreated = 160004
)

// ErrThreadExists means the source message already carries a thread.
var ErrThreadExists = errors.New("thread already exists for message")

// ThreadAPI is the part of *discordgo.Session used to create and fill threads.
type ThreadAPI interface {
	MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Request describes a thread to create.
type Request struct {
	Name               string
	AutoArchiveMinutes int
	Reason             string
}

// NewRequest builds a Request with the fixed archive duration and default reason.
// name is expected to be normalized already.
func NewRequest(name string) Request {
	return Request{Name: name, AutoArchiveMinutes: AutoArchiveMinutes, Reason: DefaultReason}
}

// Handle identifies a created thread.
type Handle struct {
	ID   string
	Name string
}

// Provisioner creates threads attached to existing messages.
type Provisioner struct {
	API ThreadAPI
}

// Create starts a public thread on messageID in channelID. A conflict reported by
// Discord is returned as ErrThreadExists; other failures are wrapped.
func (p *Provisioner) Create(ctx context.Context, channelID, messageID string, req Request) (Handle, error) {
	if p == nil || p.API == nil {
		return Handle{}, errors.New("nil thread api")
	}
	if req.AutoArchiveMinutes == 0 {
		req.AutoArchiveMinutes = AutoArchiveMinutes
	}
	if req.Reason == "" {
		req.Reason = DefaultReason
	}
	ch, err := p.API.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                req.Name,
		AutoArchiveDuration: req.AutoArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(req.Reason))
	if err != nil {
		if IsThreadExists(err) {
			return Handle{}, ErrThreadExists
		}
		return Handle{}, fmt.Errorf("start thread: %w", err)
	}
	if ch == nil {
		return Handle{}, errors.New("start thread: empty channel in response")
	}
	slog.Debug("thread created", slog.String("thread_id", ch.ID), slog.String("name", ch.Name), slog.String("component", "threads"))
	return Handle{ID: ch.ID, Name: ch.Name}, nil
}

// IsThreadExists reports whether err is Discord's "thread already created" error.
func IsThreadExists(err error) bool {
	if errors.Is(err, ErrThreadExists) {
		return true
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == codeThreadAlreadyCreated
	}
	return false
}
