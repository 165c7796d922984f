package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"trip-planner/pkg/platform"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// NominatimConfig configures the OpenStreetMap search client.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Language  string
	Timeout   time.Duration
	Retries   int
	// RatePerSecond caps outgoing searches; the public instance allows 1.
	// Zero or less means unlimited.
	RatePerSecond float64
}

// Nominatim resolves names through the OSM Nominatim search API.
// Nominatim rejects requests without an identifying User-Agent.
type Nominatim struct {
	cfg     NominatimConfig
	client  *platform.HTTPClient
	limiter *rate.Limiter
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(cfg NominatimConfig, logger zerolog.Logger) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "trip-planner/1.0"
	}
	client := platform.NewHTTPClient(cfg.Retries, cfg.Timeout)
	client.UserAgent = cfg.UserAgent
	client.Logger = logger
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Nominatim{cfg: cfg, client: client, limiter: rate.NewLimiter(limit, 1)}
}

func (n *Nominatim) Resolve(ctx context.Context, name string) (GeoPoint, error) {
	q := strings.TrimSpace(name)
	if q == "" {
		return GeoPoint{}, ErrNotFound
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return GeoPoint{}, err
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("addressdetails", "0")
	if n.cfg.Language != "" {
		params.Set("accept-language", n.cfg.Language)
	}

	var places []nominatimPlace
	if err := n.client.GetJSON(ctx, n.cfg.BaseURL+"?"+params.Encode(), &places); err != nil {
		return GeoPoint{}, fmt.Errorf("nominatim search %q: %w", q, err)
	}
	if len(places) == 0 {
		return GeoPoint{}, fmt.Errorf("%w: %q", ErrNotFound, q)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("nominatim lat %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("nominatim lon %q: %w", places[0].Lon, err)
	}

	label := places[0].DisplayName
	if label == "" {
		label = q
	}
	pt := GeoPoint{Lat: lat, Lon: lon, Label: label, Source: "nominatim"}
	if key, ok := Key(name); ok {
		pt.Key = key
	}
	return pt, nil
}
