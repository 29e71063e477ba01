package cart

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// Snapshot is what every cart operation returns: the new state plus its
// derived totals.
type Snapshot struct {
	State  *State `json:"state"`
	Totals Totals `json:"totals"`
}

// Service defines the behavior needed by the cart controller.
type Service interface {
	Get(ctx context.Context, cartID string) (*Snapshot, error)
	AddItem(ctx context.Context, cartID string, line Line) (*Snapshot, error)
	RemoveItem(ctx context.Context, cartID string, lineID string) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, cartID string, lineID string, quantity int) (*Snapshot, error)
	Clear(ctx context.Context, cartID string) (*Snapshot, error)
	ApplyCoupon(ctx context.Context, cartID string, code string) (*Snapshot, error)
}

type service struct {
	store *Store
	now   func() time.Time
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Store *Store
	Now   func() time.Time
}

// NewService constructs a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{store: params.Store, now: now}, nil
}

func (s *service) Get(ctx context.Context, cartID string) (*Snapshot, error) {
	state, err := s.store.Load(ctx, cartID, s.now())
	if err != nil {
		return nil, err
	}
	return snapshot(state), nil
}

func (s *service) AddItem(ctx context.Context, cartID string, line Line) (*Snapshot, error) {
	if err := validateLine(line); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cartID, func(state *State, now time.Time) {
		state.Add(line, now)
	})
}

func (s *service) RemoveItem(ctx context.Context, cartID string, lineID string) (*Snapshot, error) {
	if lineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}
	return s.mutate(ctx, cartID, func(state *State, now time.Time) {
		state.Remove(lineID, now)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, cartID string, lineID string, quantity int) (*Snapshot, error) {
	if lineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}
	return s.mutate(ctx, cartID, func(state *State, now time.Time) {
		state.UpdateQuantity(lineID, quantity, now)
	})
}

func (s *service) Clear(ctx context.Context, cartID string) (*Snapshot, error) {
	return s.mutate(ctx, cartID, func(state *State, now time.Time) {
		state.Clear(now)
	})
}

func (s *service) ApplyCoupon(ctx context.Context, cartID string, code string) (*Snapshot, error) {
	return s.mutate(ctx, cartID, func(state *State, now time.Time) {
		state.ApplyCoupon(code, now)
	})
}

func (s *service) mutate(ctx context.Context, cartID string, fn func(*State, time.Time)) (*Snapshot, error) {
	now := s.now()
	state, err := s.store.Load(ctx, cartID, now)
	if err != nil {
		return nil, err
	}
	fn(state, now)
	if err := s.store.Save(ctx, cartID, state); err != nil {
		return nil, err
	}
	return snapshot(state), nil
}

func snapshot(state *State) *Snapshot {
	return &Snapshot{State: state, Totals: state.Totals()}
}

func validateLine(line Line) error {
	if !line.Type.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown line type")
	}
	if line.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !line.VATRate.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown vat rate")
	}
	if line.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	return nil
}
