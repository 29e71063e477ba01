package payments

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

type fakeIdempotencyStore struct {
	seen map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: map[string]bool{}}
}

func (f *fakeIdempotencyStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "rp:idem:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.seen, key)
	}
	return nil
}

func newTestWebhookService(t *testing.T) *WebhookService {
	t.Helper()
	svc, err := NewWebhookService(logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new webhook service: %v", err)
	}
	return svc
}

func stripeEvent(t *testing.T, eventType stripe.EventType, object any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal event object: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	svc := newTestWebhookService(t)

	event := stripeEvent(t, stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id":             "cs_test_1",
		"mode":           "payment",
		"payment_status": "paid",
		"amount_total":   34998,
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEventSubscriptionLifecycle(t *testing.T) {
	svc := newTestWebhookService(t)

	event := stripeEvent(t, stripe.EventTypeCustomerSubscriptionDeleted, map[string]any{
		"id":     "sub_1",
		"status": "canceled",
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	svc := newTestWebhookService(t)

	event := stripeEvent(t, "invoice.finalized", map[string]any{"id": "in_1"})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEventRequiresData(t *testing.T) {
	svc := newTestWebhookService(t)

	err := svc.HandleEvent(context.Background(), &stripe.Event{Type: stripe.EventTypeCheckoutSessionCompleted})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIdempotencyGuardDeduplicates(t *testing.T) {
	store := newFakeIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("first delivery: seen=%v err=%v", seen, err)
	}
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil || !seen {
		t.Fatalf("second delivery: seen=%v err=%v", seen, err)
	}

	// A failed handling releases the mark so Stripe can redeliver.
	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("after release: seen=%v err=%v", seen, err)
	}
}
