package travelfee

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/recophone/recophone-backend/pkg/config"
	"github.com/recophone/recophone-backend/pkg/geo"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// ShopAddress is the fixed departure point for at-home interventions.
const ShopAddress = "Rte de Saussin 38/23a, 5190 Jemeppe-sur-Sambre, Belgique"

// Address is a complete Belgian street address.
type Address struct {
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	City       string `json:"city" validate:"required"`
}

// Text renders the address the way the geocoder expects it.
func (a Address) Text() string {
	return fmt.Sprintf("%s %s, %s %s, Belgique", a.Street, a.Number, a.PostalCode, a.City)
}

// Complete reports whether every field is populated.
func (a Address) Complete() bool {
	return a.Street != "" && a.Number != "" && a.PostalCode != "" && a.City != ""
}

// Result carries the computed distance and fee. Both pointers are nil when
// geocoding failed: nil means "unknown, not yet computed" and callers must
// not charge a fee while unknown. Zero is a real computed value.
type Result struct {
	DistanceKm *float64 `json:"distance_km"`
	FeeEUR     *float64 `json:"travel_fee"`
	Mode       string   `json:"mode,omitempty"`
}

const (
	modeRoad       = "osrm"
	modeHaversine  = "haversine"
	modeUnresolved = ""
)

type geocoder interface {
	Geocode(ctx context.Context, address string) (*geo.GeocodeResult, error)
	RoadDistance(ctx context.Context, from, to geo.LatLng) (*geo.Route, error)
}

// Calculator resolves the billable travel distance between the shop and a
// client address.
type Calculator struct {
	geo  geocoder
	cfg  config.TravelFeeConfig
	logg *logger.Logger

	mu      sync.Mutex
	shopLoc *geo.LatLng
}

// NewCalculator builds a calculator over the provided geocoding client.
func NewCalculator(geoClient geocoder, cfg config.TravelFeeConfig, logg *logger.Logger) (*Calculator, error) {
	if geoClient == nil {
		return nil, fmt.Errorf("geocoding client is required")
	}
	return &Calculator{geo: geoClient, cfg: cfg, logg: logg}, nil
}

// Compute geocodes both endpoints, asks the router for a driving distance
// and falls back to great-circle distance when routing fails. Geocoding
// failures are absorbed into a nil/nil result, never an error: the wizard
// treats unknown as "no fee yet", not as a crash.
func (c *Calculator) Compute(ctx context.Context, addr Address) Result {
	shop := c.shopLocation(ctx)
	if shop == nil {
		return Result{}
	}

	client, err := c.geo.Geocode(ctx, addr.Text())
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("client address not geocodable: %v", err))
		}
		return Result{}
	}

	distanceKm, mode := c.distanceKm(ctx, *shop, client.Location)
	fee := c.Fee(distanceKm)
	rounded := round2(distanceKm)
	return Result{DistanceKm: &rounded, FeeEUR: &fee, Mode: mode}
}

// Fee applies the free-radius rule: everything past the radius is billed
// per kilometer, rounded to cents, never negative.
func (c *Calculator) Fee(distanceKm float64) float64 {
	beyond := math.Max(0, distanceKm-c.cfg.FreeRadiusKm)
	return round2(beyond * c.cfg.RatePerKm)
}

func (c *Calculator) distanceKm(ctx context.Context, from, to geo.LatLng) (float64, string) {
	route, err := c.geo.RoadDistance(ctx, from, to)
	if err == nil && route != nil {
		return route.DistanceMeters / 1000, modeRoad
	}
	if c.logg != nil {
		c.logg.Warn(ctx, fmt.Sprintf("road routing unavailable, using great-circle distance: %v", err))
	}
	return geo.HaversineKm(from, to), modeHaversine
}

// shopLocation geocodes the shop address once and caches the coordinates
// for the lifetime of the process. A transient failure is retried on the
// next call.
func (c *Calculator) shopLocation(ctx context.Context) *geo.LatLng {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shopLoc != nil {
		return c.shopLoc
	}
	res, err := c.geo.Geocode(ctx, ShopAddress)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("shop address not geocodable: %v", err))
		}
		return nil
	}
	loc := res.Location
	c.shopLoc = &loc
	return c.shopLoc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
