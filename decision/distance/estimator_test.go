package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/decision/geocode"
	planerrors "trip-planner/pkg/errors"
)

var (
	saoPaulo = geocode.GeoPoint{Lat: -23.5505, Lon: -46.6333, Label: "São Paulo, SP"}
	manaus   = geocode.GeoPoint{Lat: -3.1190, Lon: -60.0217, Label: "Manaus, AM"}
	rio      = geocode.GeoPoint{Lat: -22.9068, Lon: -43.1729, Label: "Rio de Janeiro, RJ"}
)

func TestEstimateLongHaulIsFlight(t *testing.T) {
	e := NewEstimator(DefaultThresholds())

	est, err := e.Estimate(saoPaulo, manaus)
	require.NoError(t, err)
	assert.InDelta(t, 2689.5, est.DistanceKm, 1.0)
	assert.Equal(t, ModeFlight, est.Mode)
	assert.InDelta(t, est.DistanceKm/700, est.DurationHours, 1e-9)
}

func TestEstimateShortHopIsGround(t *testing.T) {
	e := NewEstimator(DefaultThresholds())

	est, err := e.Estimate(saoPaulo, rio)
	require.NoError(t, err)
	assert.InDelta(t, 361, est.DistanceKm, 2)
	assert.Equal(t, ModeGround, est.Mode)
	assert.InDelta(t, est.DistanceKm/80, est.DurationHours, 1e-9)
}

func TestEstimateIsSymmetric(t *testing.T) {
	e := NewEstimator(DefaultThresholds())
	ab, err := e.Estimate(saoPaulo, manaus)
	require.NoError(t, err)
	ba, err := e.Estimate(manaus, saoPaulo)
	require.NoError(t, err)
	assert.InDelta(t, ab.DistanceKm, ba.DistanceKm, 1e-9)

	same, err := e.Estimate(rio, rio)
	require.NoError(t, err)
	assert.Zero(t, same.DistanceKm)
	assert.Equal(t, ModeGround, same.Mode)
}

func TestEstimateRejectsInvalidCoordinates(t *testing.T) {
	e := NewEstimator(DefaultThresholds())

	bad := []geocode.GeoPoint{
		{Lat: 91, Lon: 0},
		{Lat: 0, Lon: -181},
		{Lat: math.NaN(), Lon: 0},
		{Lat: 0, Lon: math.Inf(1)},
	}
	for _, p := range bad {
		_, err := e.Estimate(saoPaulo, p)
		require.Error(t, err)
		assert.True(t, planerrors.Is(err, planerrors.ErrCodeInvalidCoordinate))
	}
}

func TestGroundPlausible(t *testing.T) {
	e := NewEstimator(DefaultThresholds())
	assert.True(t, e.GroundPlausible(2689))
	assert.False(t, e.GroundPlausible(5000))
	assert.InDelta(t, 10.0, e.ForMode(800, ModeGround), 1e-9)
}
