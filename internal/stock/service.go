package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/recophone/recophone-backend/pkg/config"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// Sort orders accepted by List.
const (
	SortPriceDesc = "price_desc"
	SortPriceAsc  = "price_asc"
	SortRecency   = "recency"
)

// ListParams filters the refurbished listing.
type ListParams struct {
	Query string `json:"query"`
	Brand string `json:"brand"`
	Sort  string `json:"sort"`
}

// Listing is the filtered, enriched feed served to the storefront.
type Listing struct {
	Count     int        `json:"count"`
	Items     []Enriched `json:"items"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Service serves the supplier stock to the storefront.
type Service interface {
	List(ctx context.Context, params ListParams) (*Listing, error)
	Brands() []string
}

type feed interface {
	Fetch(ctx context.Context) (*Payload, error)
}

type service struct {
	feed     feed
	cacheTTL time.Duration
	limit    int
	logg     *logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	cached    []Enriched
	fetchedAt time.Time
}

// ServiceParams bundles the dependencies required to build the stock service.
type ServiceParams struct {
	Config config.StockConfig
	Feed   feed
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService constructs the stock service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Feed == nil {
		return nil, fmt.Errorf("stock feed is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	cacheTTL := params.Config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	limit := params.Config.Limit
	if limit <= 0 {
		limit = 200
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		feed:     params.Feed,
		cacheTTL: cacheTTL,
		limit:    limit,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// List returns the enriched feed filtered by brand and free-text query.
// Items outside the sold brand families never surface. The feed is
// cached in process; a stale cache is served when a refresh fails so a
// supplier outage does not blank the page.
func (s *service) List(ctx context.Context, params ListParams) (*Listing, error) {
	items, fetchedAt, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	brand := strings.TrimSpace(params.Brand)

	filtered := make([]Enriched, 0, len(items))
	for _, item := range items {
		if !lo.Contains(AllowedBrands, item.Brand) {
			continue
		}
		if brand != "" && !strings.EqualFold(item.Brand, brand) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		filtered = append(filtered, item)
	}

	sortListing(filtered, params.Sort)
	if len(filtered) > s.limit {
		filtered = filtered[:s.limit]
	}
	return &Listing{Count: len(filtered), Items: filtered, FetchedAt: fetchedAt}, nil
}

// Brands lists the selectable brand filters.
func (s *service) Brands() []string {
	out := make([]string, len(AllowedBrands))
	copy(out, AllowedBrands)
	return out
}

func (s *service) snapshot(ctx context.Context) ([]Enriched, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && now.Sub(s.fetchedAt) < s.cacheTTL {
		return s.cached, s.fetchedAt, nil
	}

	payload, err := s.feed.Fetch(ctx)
	if err != nil {
		if s.cached != nil {
			s.logg.Error(ctx, "stock feed refresh failed, serving stale cache", err)
			return s.cached, s.fetchedAt, nil
		}
		return nil, time.Time{}, err
	}

	enriched := make([]Enriched, 0, len(payload.Items))
	for _, item := range payload.Items {
		enriched = append(enriched, Enrich(item))
	}
	s.cached = enriched
	s.fetchedAt = now
	return s.cached, s.fetchedAt, nil
}

func sortListing(items []Enriched, order string) {
	price := func(e Enriched) float64 {
		if e.PriceEUR == nil {
			return -1
		}
		return *e.PriceEUR
	}
	switch order {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			pi, pj := price(items[i]), price(items[j])
			// Unpriced items sink to the bottom either way.
			if pi < 0 {
				return false
			}
			if pj < 0 {
				return true
			}
			return pi < pj
		})
	case SortRecency:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Recency != items[j].Recency {
				return items[i].Recency > items[j].Recency
			}
			return price(items[i]) > price(items[j])
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return price(items[i]) > price(items[j])
		})
	}
}
