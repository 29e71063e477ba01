package cart

import (
	"context"
	"time"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// Carts live as one JSON blob per cart id. Abandoned carts expire after a
// month of inactivity.
const stateTTL = 30 * 24 * time.Hour

// Event is published on the cart's channel after every write so other
// open tabs re-read the blob. Last write observed wins; there is no merge.
type Event struct {
	CartID    string `json:"cart_id"`
	UpdatedAt int64  `json:"updated_at"`
}

type blobStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, payload any) error
	CartKey(cartID string) string
	CartEventsChannel(cartID string) string
}

// Store persists cart state in Redis and fans out change events.
type Store struct {
	redis blobStore
}

// NewStore wraps the shared Redis client.
func NewStore(redis blobStore) *Store {
	return &Store{redis: redis}
}

// Load returns the cart for the id, or a fresh empty cart when none is
// stored yet.
func (s *Store) Load(ctx context.Context, cartID string, now time.Time) (*State, error) {
	var state State
	found, err := s.redis.GetJSON(ctx, s.redis.CartKey(cartID), &state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !found {
		return NewState(now), nil
	}
	if state.Items == nil {
		state.Items = []Line{}
	}
	return &state, nil
}

// Save writes the cart blob and notifies subscribers.
func (s *Store) Save(ctx context.Context, cartID string, state *State) error {
	if err := s.redis.SetJSON(ctx, s.redis.CartKey(cartID), state, stateTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	event := Event{CartID: cartID, UpdatedAt: state.UpdatedAt}
	if err := s.redis.Publish(ctx, s.redis.CartEventsChannel(cartID), event); err != nil {
		// The write itself succeeded; a missed notification only delays
		// other tabs until their next read.
		return nil
	}
	return nil
}

// Delete removes the cart blob entirely.
func (s *Store) Delete(ctx context.Context, cartID string) error {
	if err := s.redis.Del(ctx, s.redis.CartKey(cartID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
