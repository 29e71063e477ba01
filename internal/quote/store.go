package quote

import (
	"context"
	"time"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// Drafts are short-lived: a draft untouched for a quarter hour is
// considered abandoned and never restored.
const DraftTTL = 15 * time.Minute

type draftStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DraftKey(sessionID string) string
}

// Store persists wizard drafts in Redis, one blob per browser session.
type Store struct {
	redis draftStore
}

// NewStore wraps the shared Redis client.
func NewStore(redis draftStore) *Store {
	return &Store{redis: redis}
}

// Load returns the draft for the session, or nil when none is stored.
// The key expires on its own, but the age check also runs here so a
// blob written just inside the window is not restored past it.
func (s *Store) Load(ctx context.Context, sessionID string, now time.Time) (*Draft, error) {
	var draft Draft
	found, err := s.redis.GetJSON(ctx, s.redis.DraftKey(sessionID), &draft)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft")
	}
	if !found {
		return nil, nil
	}
	if now.UnixMilli()-draft.UpdatedAt > DraftTTL.Milliseconds() {
		_ = s.redis.Del(ctx, s.redis.DraftKey(sessionID))
		return nil, nil
	}
	return &draft, nil
}

// Save writes the draft blob with a fresh expiry.
func (s *Store) Save(ctx context.Context, sessionID string, draft *Draft) error {
	if err := s.redis.SetJSON(ctx, s.redis.DraftKey(sessionID), draft, DraftTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save draft")
	}
	return nil
}

// Delete discards the draft, used by the explicit "start over" action
// and after a successful finalize.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.redis.DraftKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft")
	}
	return nil
}
