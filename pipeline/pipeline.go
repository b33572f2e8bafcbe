// Package pipeline runs the per-message steps that turn a promotion post into a
// discussion thread: eligibility, classification, dedup, metadata resolution, title
// normalization, thread creation, ledger update and content delivery.
//
// Handle never returns an error. Every failure is logged with the message's
// correlation id and reported as an Outcome so callers (and tests) can tell the
// paths apart.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/qqqqqqq1/discord-thread-bot/db"
	"github.com/qqqqqqq1/discord-thread-bot/ledger"
	"github.com/qqqqqqq1/discord-thread-bot/links"
	"github.com/qqqqqqq1/discord-thread-bot/resolve"
	"github.com/qqqqqqq1/discord-thread-bot/telemetry"
	"github.com/qqqqqqq1/discord-thread-bot/threads"
)

// IncomingMessage is an immutable snapshot of one chat event.
type IncomingMessage struct {
	ID               string
	ChannelID        string
	ChannelName      string
	GuildPresent     bool
	AuthorName       string
	Text             string
	AlreadyHasThread bool
}

// Outcome is the terminal state of one Handle call.
type Outcome string

const (
	OutcomeIneligible     Outcome = "ineligible"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeResolveFailed  Outcome = "resolve_failed"
	OutcomeInvalidTitle   Outcome = "invalid_title"
	OutcomeConflict       Outcome = "conflict"
	OutcomeThreadFailed   Outcome = "thread_failed"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeCreated        Outcome = "created"
)

// History records thread outcomes for auditing. Implementations must not block for
// long; failures are logged and ignored.
type History interface {
	Record(ctx context.Context, rec db.ThreadRecord) error
}

// Pipeline holds the collaborators shared by all message handlers.
type Pipeline struct {
	Ledger    *ledger.Ledger
	Resolvers resolve.Registry
	Threads   threads.ThreadAPI
	// History is optional.
	History History
	// ChannelToken defaults to links.DefaultChannelToken.
	ChannelToken string
}

// New returns a Pipeline with a fresh ledger.
func New(resolvers resolve.Registry, api threads.ThreadAPI) *Pipeline {
	telemetry.Init()
	return &Pipeline{
		Ledger:       ledger.New(),
		Resolvers:    resolvers,
		Threads:      api,
		ChannelToken: links.DefaultChannelToken,
	}
}

// Handle processes a single message. It is safe to call from many goroutines.
func (p *Pipeline) Handle(ctx context.Context, msg IncomingMessage) (outcome Outcome) {
	start := time.Now()
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	ctx, span := telemetry.StartSpan(ctx, telemetry.PipelineTracer, telemetry.SpanHandleMessage,
		telemetry.MessageAttrs(msg.ID, msg.ChannelName)...)
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "pipeline"), slog.String("message_id", msg.ID))
	telemetry.CountMessage()

	defer func() {
		span.SetAttributes(telemetry.OutcomeAttr(string(outcome)))
		switch outcome {
		case OutcomeResolveFailed, OutcomeInvalidTitle, OutcomeThreadFailed, OutcomeDeliveryFailed:
			// error already recorded on the span
		default:
			telemetry.SetSpanSuccess(span)
		}
		span.End()
		telemetry.CountOutcome(string(outcome))
		telemetry.SetLedgerSize(p.Ledger.Len())
		if telemetry.HandleDuration != nil {
			telemetry.HandleDuration.Observe(time.Since(start).Seconds())
		}
	}()

	token := p.ChannelToken
	if token == "" {
		token = links.DefaultChannelToken
	}
	if !links.EligibleFor(token, msg.GuildPresent, msg.ChannelName) {
		return OutcomeIneligible
	}
	match, ok := links.Classify(msg.Text)
	if !ok {
		return OutcomeIneligible
	}
	log = log.With(slog.String("url", match.URL), slog.String("provider", match.Provider.String()))
	span.SetAttributes(telemetry.ProviderAttr(match.Provider.String()))
	telemetry.CountLink(match.Provider.String())

	if msg.AlreadyHasThread {
		p.Ledger.Add(match.URL)
		p.Ledger.AddMessage(msg.ID)
		log.Debug("message already has a thread")
		return OutcomeDuplicate
	}
	if p.Ledger.Contains(match.URL) || p.Ledger.HasMessage(msg.ID) {
		log.Debug("link already threaded")
		return OutcomeDuplicate
	}

	md, err := p.resolve(ctx, match)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountResolverFailure(match.Provider.String())
		log.Warn("metadata resolution failed", slog.Any("err", err))
		return OutcomeResolveFailed
	}

	title, err := threads.NormalizeTitle(md.Title)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("invalid thread title", slog.Any("err", err))
		return OutcomeInvalidTitle
	}

	prov := &threads.Provisioner{API: p.Threads}
	handle, err := prov.Create(ctx, msg.ChannelID, msg.ID, threads.NewRequest(title))
	if errors.Is(err, threads.ErrThreadExists) {
		p.Ledger.Add(match.URL)
		p.Ledger.AddMessage(msg.ID)
		p.record(ctx, log, msg, match, handle, title, OutcomeConflict)
		log.Info("thread already exists for message")
		return OutcomeConflict
	}
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("thread creation failed", slog.Any("err", err))
		return OutcomeThreadFailed
	}

	p.Ledger.Add(match.URL)
	p.Ledger.AddMessage(msg.ID)
	p.record(ctx, log, msg, match, handle, title, OutcomeCreated)
	log.Info("thread created", slog.String("thread_id", handle.ID), slog.String("title", title))

	sent, err := threads.Deliver(ctx, p.Threads, handle.ID, threads.Body(md.Description, md.Credits))
	telemetry.AddChunks(sent)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("content delivery failed", slog.Any("err", err), slog.Int("chunks_sent", sent))
		return OutcomeDeliveryFailed
	}
	return OutcomeCreated
}

func (p *Pipeline) resolve(ctx context.Context, match links.Match) (md resolve.Metadata, err error) {
	r, err := p.Resolvers.For(match.Provider)
	if err != nil {
		return resolve.Metadata{}, err
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.PipelineTracer, telemetry.SpanResolve, telemetry.ProviderAttr(match.Provider.String()))
	defer span.End()
	telemetry.TimeFunc(telemetry.ResolveObserver(match.Provider.String()), func() {
		md, err = r.Resolve(ctx, match.URL)
	})
	telemetry.RecordError(span, err)
	return md, err
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, msg IncomingMessage, match links.Match, h threads.Handle, title string, outcome Outcome) {
	if p.History == nil {
		return
	}
	rec := db.ThreadRecord{
		URL:       match.URL,
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
		ThreadID:  h.ID,
		Title:     title,
		Provider:  match.Provider.String(),
		Outcome:   string(outcome),
	}
	if err := p.History.Record(ctx, rec); err != nil {
		log.Warn("failed to record thread history", slog.Any("err", err))
	}
}
