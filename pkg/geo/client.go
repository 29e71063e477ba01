package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

const (
	defaultNominatimBaseURL       = "https://nominatim.openstreetmap.org"
	defaultOSRMBaseURL            = "https://router.project-osrm.org"
	earthRadiusKm                 = 6371.0
	responseBodyReadLimit   int64 = 1024
)

// ErrNotFound signals that the geocoder returned no match for the address.
var ErrNotFound = errors.New("address not found")

var errUserAgentRequired = errors.New("geocoding user agent is required")

// LatLng is a coordinate pair.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// GeocodeResult is the normalized geocoder response.
type GeocodeResult struct {
	Location    LatLng
	DisplayName string
}

// Route is the normalized routing response.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Client wraps the Nominatim geocoding and OSRM routing services.
type Client struct {
	httpClient    *http.Client
	nominatimBase string
	osrmBase      string
	countryCodes  string
	userAgent     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithNominatimBaseURL overrides the geocoder base URL.
func WithNominatimBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.nominatimBase = trimmed
		}
	}
}

// WithOSRMBaseURL overrides the router base URL.
func WithOSRMBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.osrmBase = trimmed
		}
	}
}

// NewClient builds the geocoding/routing client from configuration.
func NewClient(cfg config.GeoConfig, opts ...Option) (*Client, error) {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		// Nominatim's usage policy rejects anonymous clients.
		return nil, errUserAgentRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		nominatimBase: defaultNominatimBaseURL,
		osrmBase:      defaultOSRMBaseURL,
		countryCodes:  strings.TrimSpace(cfg.CountryCodes),
		userAgent:     userAgent,
	}
	if base := strings.TrimSpace(cfg.NominatimBaseURL); base != "" {
		client.nominatimBase = base
	}
	if base := strings.TrimSpace(cfg.OSRMBaseURL); base != "" {
		client.osrmBase = base
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Geocode resolves a free-text address to coordinates. Returns ErrNotFound
// when the geocoder has no match.
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geo client not configured")
	}
	if strings.TrimSpace(address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if c.countryCodes != "" {
		query.Set("countrycodes", c.countryCodes)
	}

	endpoint := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.nominatimBase, "/"), query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	var apiResp []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}
	if len(apiResp) == 0 {
		return nil, ErrNotFound
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(apiResp[0].Lat, "%f", &lat); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode latitude")
	}
	if _, err := fmt.Sscanf(apiResp[0].Lon, "%f", &lon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode longitude")
	}

	return &GeocodeResult{
		Location:    LatLng{Latitude: lat, Longitude: lon},
		DisplayName: apiResp[0].DisplayName,
	}, nil
}

// RoadDistance requests a driving route between the two coordinate pairs.
func (c *Client) RoadDistance(ctx context.Context, from, to LatLng) (*Route, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geo client not configured")
	}

	// OSRM takes lon,lat pairs.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		strings.TrimRight(c.osrmBase, "/"),
		from.Longitude, from.Latitude,
		to.Longitude, to.Latitude,
	)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build route request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute route request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "route request failed")
	}

	var apiResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode route response")
	}
	if apiResp.Code != "Ok" || len(apiResp.Routes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("route not available (code %q)", apiResp.Code))
	}

	return &Route{
		DistanceMeters:  apiResp.Routes[0].Distance,
		DurationSeconds: apiResp.Routes[0].Duration,
	}, nil
}

// HaversineKm computes the great-circle distance between two coordinates.
func HaversineKm(from, to LatLng) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
