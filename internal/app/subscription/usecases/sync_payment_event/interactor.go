package sync_payment_event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

const defaultRequestTimeout = 10 * time.Second

// Outcome describes what happened to a verified delivery
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeNoop      Outcome = "noop"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStale     Outcome = "stale"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
)

// Config holds the synchronizer settings resolved at startup
type Config struct {
	WebhookSecret  string
	Prices         domain.PriceTable
	RequestTimeout time.Duration
}

// Result reports a verified delivery. It is returned whenever the delivery
// must be acknowledged, including when processing failed.
type Result struct {
	EventID   string
	EventType string
	Outcome   Outcome
}

// Interactor handles the payment event synchronization use case
type Interactor struct {
	store     contracts.SubscriptionStore
	processor contracts.PaymentProcessor
	decoder   contracts.EventDecoder
	events    contracts.ProcessedEventLog
	clock     domain.Clock
	cfg       Config
	logger    *slog.Logger
	locks     *keyedMutex
}

// NewInteractor creates a new payment event synchronizer
func NewInteractor(
	store contracts.SubscriptionStore,
	processor contracts.PaymentProcessor,
	decoder contracts.EventDecoder,
	events contracts.ProcessedEventLog,
	clock domain.Clock,
	cfg Config,
	logger *slog.Logger,
) *Interactor {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Interactor{
		store:     store,
		processor: processor,
		decoder:   decoder,
		events:    events,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With("module", "sync_payment_event"),
		locks:     newKeyedMutex(),
	}
}

// Execute authenticates one webhook delivery and applies it. Only a missing
// signature, a missing secret or a failed verification return an error;
// every later failure is logged and reported through Result.Outcome.
func (i *Interactor) Execute(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, domain.ErrMissingSignature
	}
	if i.cfg.WebhookSecret == "" {
		i.logger.ErrorContext(ctx, "webhook secret is not configured")
		return nil, domain.ErrMisconfigured
	}

	env, err := i.decoder.Verify(payload, signature, i.cfg.WebhookSecret)
	if err != nil {
		i.logger.WarnContext(ctx, "signature verification failed", "error", err)
		if !errors.Is(err, domain.ErrSignatureInvalid) {
			err = fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
		}
		return nil, err
	}

	i.logger.InfoContext(ctx, "received event", "event_id", env.ID, "event_type", env.Type)
	result := &Result{EventID: env.ID, EventType: env.Type}
	result.Outcome = i.bestEffort(ctx, env, func(ctx context.Context) (Outcome, error) {
		return i.process(ctx, env)
	})
	return result, nil
}

// bestEffort is the one place where processing errors are swallowed. The
// processor is acknowledged regardless; reconciliation happens out of band.
func (i *Interactor) bestEffort(ctx context.Context, env domain.Envelope, fn func(context.Context) (Outcome, error)) (outcome Outcome) {
	log := i.logger.With("event_id", env.ID, "event_type", env.Type)
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "event processing panicked", "outcome", OutcomeFailed, "panic", rec)
			outcome = OutcomeFailed
		}
	}()

	outcome, err := fn(ctx)
	switch {
	case err == nil:
		log.InfoContext(ctx, "event processed", "outcome", outcome)
	case errors.Is(err, domain.ErrMalformedEvent):
		outcome = OutcomeMalformed
		log.WarnContext(ctx, "event dropped", "outcome", outcome, "error", err)
	case errors.Is(err, domain.ErrStaleEvent):
		outcome = OutcomeStale
		log.InfoContext(ctx, "event dropped", "outcome", outcome, "error", err)
	default:
		outcome = OutcomeFailed
		log.ErrorContext(ctx, "event processing failed", "outcome", outcome, "error", err)
	}
	return outcome
}

func (i *Interactor) process(ctx context.Context, env domain.Envelope) (Outcome, error) {
	event, err := i.decoder.Decode(env)
	if err != nil {
		return OutcomeMalformed, err
	}
	if _, ok := event.(domain.UnrecognizedEvent); ok {
		i.logger.InfoContext(ctx, "unhandled event type", "event_id", env.ID, "event_type", env.Type)
		return OutcomeIgnored, nil
	}

	seen, err := i.events.Seen(ctx, env.ID)
	if err != nil {
		// Handlers are idempotent and version guarded, so processing without
		// the log is safe; only the duplicate shortcut is lost.
		i.logger.WarnContext(ctx, "processed-event log unavailable", "event_id", env.ID, "error", err)
	} else if seen {
		return OutcomeDuplicate, nil
	}

	outcome, err := i.dispatch(ctx, event)
	if err == nil || errors.Is(err, domain.ErrStaleEvent) {
		if recordErr := i.events.Record(ctx, env.ID); recordErr != nil {
			i.logger.WarnContext(ctx, "failed to record processed event", "event_id", env.ID, "error", recordErr)
		}
	}
	return outcome, err
}

func (i *Interactor) dispatch(ctx context.Context, event domain.PaymentEvent) (Outcome, error) {
	switch e := event.(type) {
	case domain.CheckoutCompleted:
		return i.handleCheckoutCompleted(ctx, e)
	case domain.SubscriptionUpdated:
		return i.handleSubscriptionUpdated(ctx, e)
	case domain.SubscriptionDeleted:
		return i.handleSubscriptionDeleted(ctx, e)
	default:
		return OutcomeIgnored, nil
	}
}
