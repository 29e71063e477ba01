package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/recophone/recophone-backend/internal/catalog"
	"github.com/recophone/recophone-backend/internal/travelfee"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// Service drives the quote wizard server-side: draft persistence plus
// the step transitions that need validation.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Draft, error)
	Save(ctx context.Context, sessionID string, draft Draft) (*Draft, error)
	Navigate(ctx context.Context, sessionID string, target int) (*Draft, error)
	AddDevice(ctx context.Context, sessionID string) (*Draft, error)
	RemoveDevice(ctx context.Context, sessionID string, index int) (*Draft, error)
	SelectModel(ctx context.Context, sessionID string, category, model string) (*Draft, error)
	Clear(ctx context.Context, sessionID string) error
}

// feeComputer is the slice of the travel-fee calculator the wizard needs.
type feeComputer interface {
	Compute(ctx context.Context, addr travelfee.Address) travelfee.Result
}

type service struct {
	store        *Store
	catalog      *catalog.Catalog
	blockedDates []string
	now          func() time.Time
	fees         feeComputer
	feeScheduler *travelfee.Scheduler
}

// ServiceParams bundles the dependencies required to build a quote service.
// Fees and FeeScheduler are optional; without them autosaves never trigger
// a travel-fee computation.
type ServiceParams struct {
	Store        *Store
	Catalog      *catalog.Catalog
	BlockedDates []string
	Now          func() time.Time
	Fees         feeComputer
	FeeScheduler *travelfee.Scheduler
}

// NewService constructs a quote service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	blocked := params.BlockedDates
	if blocked == nil {
		blocked = DefaultBlockedDates
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:        params.Store,
		catalog:      params.Catalog,
		blockedDates: blocked,
		now:          now,
		fees:         params.Fees,
		feeScheduler: params.FeeScheduler,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Draft, error) {
	now := s.now()
	draft, err := s.store.Load(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return NewDraft(now), nil
	}
	return draft, nil
}

// Save accepts a full draft from the autosave endpoint. The blob is
// normalized before persisting; a selected slot that no longer passes
// the schedule rules is dropped rather than rejected, so a stale tab
// does not lock the user out of its own draft.
func (s *service) Save(ctx context.Context, sessionID string, draft Draft) (*Draft, error) {
	now := s.now()
	draft.Normalize(now)
	if draft.SlotISO != "" {
		if _, ok := ValidateSlotISO(draft.SlotISO, now, s.blockedDates); !ok {
			draft.SlotISO = ""
		}
	}
	if err := s.store.Save(ctx, sessionID, &draft); err != nil {
		return nil, err
	}
	s.scheduleTravelFee(sessionID, &draft)
	return &draft, nil
}

// scheduleTravelFee queues a debounced fee computation when the saved
// draft has a complete at-home address with no computed distance yet.
// Address edits arrive keystroke by keystroke through autosave and the
// front-end drops the stale distance on every edit, so "distance is nil"
// marks exactly the drafts awaiting a computation. The result applies to
// the stored draft only if the address is still the same by then.
func (s *service) scheduleTravelFee(sessionID string, draft *Draft) {
	if s.fees == nil || s.feeScheduler == nil {
		return
	}
	client := draft.Client
	if !client.AtHome || client.Address == nil || !client.Address.Complete() {
		return
	}
	if client.DistanceKm != nil {
		return
	}
	addr := *client.Address
	s.feeScheduler.Schedule(
		func() travelfee.Result {
			return s.fees.Compute(context.Background(), addr)
		},
		func(res travelfee.Result) {
			s.applyTravelFee(sessionID, addr, res)
		},
	)
}

// applyTravelFee writes a computed result back into the stored draft,
// unless the draft moved on (expired, went in-shop, or the address
// changed again) while the computation ran.
func (s *service) applyTravelFee(sessionID string, addr travelfee.Address, res travelfee.Result) {
	ctx := context.Background()
	draft, err := s.store.Load(ctx, sessionID, s.now())
	if err != nil || draft == nil {
		return
	}
	client := &draft.Client
	if !client.AtHome || client.Address == nil || *client.Address != addr {
		return
	}
	client.DistanceKm = res.DistanceKm
	client.TravelFee = nil
	if res.FeeEUR != nil {
		fee := decimal.NewFromFloat(*res.FeeEUR)
		client.TravelFee = &fee
	}
	_ = s.store.Save(ctx, sessionID, draft)
}

// Navigate moves the wizard to the target step index. Forward jumps are
// gated; entering the schedule step with no slot picks the next free
// Saturday's first hour.
func (s *service) Navigate(ctx context.Context, sessionID string, target int) (*Draft, error) {
	return s.mutate(ctx, sessionID, func(draft *Draft, now time.Time) error {
		if !draft.CanNavigateTo(target) {
			return pkgerrors.New(pkgerrors.CodeValidation, "step not reachable yet")
		}
		draft.Current = target
		if draft.CurrentStep() == StepSchedule && draft.SlotISO == "" {
			if slot, ok := NextAvailableSlot(now, s.blockedDates); ok {
				draft.SlotISO = slot.Format(time.RFC3339)
			}
		}
		return nil
	})
}

func (s *service) AddDevice(ctx context.Context, sessionID string) (*Draft, error) {
	return s.mutate(ctx, sessionID, func(draft *Draft, _ time.Time) error {
		draft.AddDevice()
		return nil
	})
}

func (s *service) RemoveDevice(ctx context.Context, sessionID string, index int) (*Draft, error) {
	return s.mutate(ctx, sessionID, func(draft *Draft, _ time.Time) error {
		if index < 0 || index >= len(draft.Devices) {
			return pkgerrors.New(pkgerrors.CodeValidation, "no device at that index")
		}
		draft.RemoveDevice(index)
		return nil
	})
}

// SelectModel sets the active device's identity, drops any previously
// selected repairs and advances to the repairs step.
func (s *service) SelectModel(ctx context.Context, sessionID string, category, model string) (*Draft, error) {
	models := s.catalog.ModelsOf(category)
	if len(models) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
	}
	if !lo.Contains(models, model) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown model")
	}
	return s.mutate(ctx, sessionID, func(draft *Draft, _ time.Time) error {
		dev := draft.ActiveDevice()
		dev.Category = category
		dev.Model = model
		dev.Items = []Item{}
		draft.Current = 1
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *service) mutate(ctx context.Context, sessionID string, fn func(*Draft, time.Time) error) (*Draft, error) {
	now := s.now()
	draft, err := s.store.Load(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		draft = NewDraft(now)
	}
	if err := fn(draft, now); err != nil {
		return nil, err
	}
	draft.Normalize(now)
	if err := s.store.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}
