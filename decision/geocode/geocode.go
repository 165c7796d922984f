// Package geocode resolves place names to coordinates.
//
// Resolvers are collaborators with two outcomes: a GeoPoint or an error.
// ErrNotFound marks a name no source recognised; any other error is a
// transport or decoding failure.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned when a name has no match.
var ErrNotFound = errors.New("geocode: place not found")

// GeoPoint is a resolved location.
type GeoPoint struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	// Key is the normalized catalog key when the point came from (or matches) the
	// local catalog; empty for points only the online source knew.
	Key    string `json:"key,omitempty"`
	Source string `json:"source"`
}

// Geocoder resolves a place name.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (GeoPoint, error)
}

// Chain tries each geocoder in order and returns the first hit. Errors from
// earlier sources are logged and swallowed when a later source succeeds.
type Chain struct {
	sources []Geocoder
	logger  zerolog.Logger
}

// NewChain builds a chain over the given sources. Nil sources are skipped.
func NewChain(logger zerolog.Logger, sources ...Geocoder) *Chain {
	c := &Chain{logger: logger}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

func (c *Chain) Resolve(ctx context.Context, name string) (GeoPoint, error) {
	if strings.TrimSpace(name) == "" {
		return GeoPoint{}, ErrNotFound
	}

	var lastErr error = ErrNotFound
	for _, src := range c.sources {
		pt, err := src.Resolve(ctx, name)
		if err == nil {
			return pt, nil
		}
		if ctx.Err() != nil {
			return GeoPoint{}, ctx.Err()
		}
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn().Err(err).Str("place", name).Msg("geocoder failed, trying next source")
		}
		lastErr = err
	}
	if errors.Is(lastErr, ErrNotFound) {
		return GeoPoint{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return GeoPoint{}, lastErr
}

// Normalize lowercases, collapses whitespace and strips diacritics so that
// "Belém", "belem" and " BELEM " share a key.
func Normalize(name string) string {
	s := strings.ToLower(strings.Join(strings.Fields(name), " "))
	// Transformers carry state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
