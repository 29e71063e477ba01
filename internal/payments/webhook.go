package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/redis"
)

// WebhookService consumes verified Stripe events.
type WebhookService struct {
	logg *logger.Logger
}

// NewWebhookService constructs the webhook event consumer.
func NewWebhookService(logg *logger.Logger) (*WebhookService, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &WebhookService{logg: logg}, nil
}

// HandleEvent reacts to checkout completion and subscription lifecycle
// events. Payment itself is the source of truth at Stripe; this side
// only keeps an audit trail, so unknown event types are acknowledged
// without work.
func (s *WebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"session_id":     session.ID,
			"mode":           string(session.Mode),
			"payment_status": string(session.PaymentStatus),
			"amount_total":   session.AmountTotal,
			"email":          sessionEmail(&session),
			"source":         session.Metadata["source"],
		}), "checkout session completed")
		return nil
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID,
			"status":          string(sub.Status),
			"event":           string(event.Type),
		}), "subscription lifecycle event")
		return nil
	default:
		return nil
	}
}

// IdempotencyGuard deduplicates webhook deliveries by event id.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard builds a Redis-backed deduplication guard.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark reports whether the event was already processed, marking
// it as seen otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(g.scope, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete unmarks an event so a failed handling can be redelivered.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(g.scope, eventID)
	return g.store.Del(ctx, key)
}
