package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/decision/budget"
	"trip-planner/decision/costmodel"
	"trip-planner/decision/distance"
	"trip-planner/decision/geocode"
	"trip-planner/decision/itinerary"
	"trip-planner/decision/narrative"
	planerrors "trip-planner/pkg/errors"
)

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, req narrative.Request) (string, error) {
	return fmt.Sprintf("generated (%d chars of context)", len(req.Prompt)), nil
}

type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, req narrative.Request) (string, error) {
	return "", errors.New("upstream unavailable")
}

type countingGeocoder struct {
	inner geocode.Geocoder
	calls map[string]int
}

func (c *countingGeocoder) Resolve(ctx context.Context, name string) (geocode.GeoPoint, error) {
	c.calls[name]++
	return c.inner.Resolve(ctx, name)
}

var fixedNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func newPlanner(t *testing.T, gen narrative.Generator) (*Planner, *countingGeocoder) {
	t.Helper()
	model, err := costmodel.NewModel(costmodel.DefaultRateCard())
	require.NoError(t, err)
	geo := &countingGeocoder{inner: geocode.NewCatalog(), calls: map[string]int{}}

	p, err := New(Deps{
		Geocoder: geo,
		Model:    model,
		Enricher: narrative.NewEnricher(gen, narrative.DefaultConfig(), zerolog.Nop()),
		Logger:   zerolog.Nop(),
		Clock:    func() time.Time { return fixedNow },
		NewID:    func() uuid.UUID { return uuid.MustParse("00000000-0000-0000-0000-000000000001") },
	})
	require.NoError(t, err)
	return p, geo
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func ceiling(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func saoPauloManaus(c *decimal.Decimal) TripRequest {
	return TripRequest{
		Origin:      "São Paulo",
		Destination: "Manaus",
		StartDate:   date("2025-11-01"),
		EndDate:     date("2025-11-07"),
		Travelers:   2,
		Profile:     costmodel.Balanced,
		Themes:      []string{"natureza", "cultura"},
		Ceiling:     c,
		Currency:    "BRL",
	}
}

func assertInvariants(t *testing.T, res *PlanResult) {
	t.Helper()

	assert.Len(t, res.Days, daysBetween(res.EffectiveStart, res.EffectiveEnd))

	items := decimal.Zero
	for _, it := range res.Items {
		items = items.Add(it.Amount)
	}
	assert.True(t, items.Equal(res.Total), "items %s != total %s", items, res.Total)

	days := decimal.Zero
	for _, d := range res.Days {
		days = days.Add(d.Cost)
		assert.NotEmpty(t, d.Narrative)
	}
	assert.True(t, days.Equal(res.Total), "days %s != total %s", days, res.Total)

	if res.Ceiling != nil && res.CeilingMet {
		assert.True(t, res.Total.LessThanOrEqual(*res.Ceiling))
	}
	assert.True(t, res.Savings.Equal(res.BaselineTotal.Sub(res.Total)))
	assert.NotEmpty(t, res.Suggestions)
	assert.NotEmpty(t, res.Observations)
}

func TestPlanSaoPauloManausFitsCeiling(t *testing.T) {
	p, geo := newPlanner(t, echoGenerator{})

	res, err := p.Plan(context.Background(), saoPauloManaus(ceiling(5000)))
	require.NoError(t, err)
	assertInvariants(t, res)

	assert.Len(t, res.Days, 7)
	assert.True(t, res.CeilingMet)
	assert.True(t, res.Total.LessThanOrEqual(decimal.NewFromInt(5000)))
	assert.Equal(t, budget.StatusAdapted, res.AdaptationStatus)
	require.Len(t, res.Legs, 2)
	assert.False(t, res.Legs[0].Return)
	assert.True(t, res.Legs[1].Return)
	assert.Equal(t, distance.ModeFlight, res.Mode)
	assert.Equal(t, costmodel.Economic, res.Profile)
	assert.Equal(t, budget.StrategyProfileDowngrade, res.Adaptations[0].Strategy)
	assert.True(t, res.Savings.IsPositive())
	assert.False(t, res.PeriodAdjusted())
	assert.NotEmpty(t, res.FlightTime)
	assert.Equal(t, "Manaus, AM", res.Destination.Label)
	assert.NotEmpty(t, res.ClimateRisk.Label)
	assert.Greater(t, res.CarbonKgCO2e, 0.0)
	for _, d := range res.Days {
		assert.Equal(t, itinerary.SourceGenerated, d.NarrativeSource)
	}
	assert.Equal(t, 1, geo.calls["São Paulo"])
	assert.Equal(t, 1, geo.calls["Manaus"])
}

func TestPlanSaoPauloManausCeilingNotMet(t *testing.T) {
	p, _ := newPlanner(t, echoGenerator{})

	res, err := p.Plan(context.Background(), saoPauloManaus(ceiling(500)))
	require.NoError(t, err)
	assertInvariants(t, res)

	assert.False(t, res.CeilingMet)
	assert.Equal(t, budget.StatusCeilingNotMet, res.AdaptationStatus)
	require.NotEmpty(t, res.Adaptations)
	assert.Equal(t, budget.StrategyProfileDowngrade, res.Adaptations[0].Strategy)
	assert.Equal(t, costmodel.Economic, res.Profile)
	assert.Len(t, res.Days, 1)
	assert.Equal(t, date("2025-11-01"), res.EffectiveEnd)
	assert.True(t, res.PeriodAdjusted())
	assert.Equal(t, distance.ModeGround, res.Mode)
	assert.Empty(t, res.FlightTime)
	assert.Contains(t, res.Suggestions, "Choose only free attractions for some days.")
	require.NotNil(t, res.Ceiling)
	assert.True(t, res.Ceiling.Equal(decimal.NewFromInt(500)))
}

func TestPlanUnresolvableDestination(t *testing.T) {
	p, _ := newPlanner(t, echoGenerator{})
	req := saoPauloManaus(nil)
	req.Destination = "Atlantis"

	res, err := p.Plan(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, planerrors.Is(err, planerrors.ErrCodeGeocodeFailed))
	assert.Contains(t, err.Error(), "Atlantis")
	assert.ErrorIs(t, err, geocode.ErrNotFound)
}

func TestPlanWithoutCeiling(t *testing.T) {
	p, _ := newPlanner(t, echoGenerator{})

	res, err := p.Plan(context.Background(), saoPauloManaus(nil))
	require.NoError(t, err)
	assertInvariants(t, res)

	assert.Empty(t, res.Adaptations)
	assert.Equal(t, budget.StatusNoCeiling, res.AdaptationStatus)
	assert.True(t, res.Savings.IsZero())
	assert.Nil(t, res.Ceiling)
	assert.Equal(t, costmodel.Balanced, res.Profile)
}

func TestPlanFallsBackWhenGeneratorFails(t *testing.T) {
	p, _ := newPlanner(t, failingGenerator{})

	res, err := p.Plan(context.Background(), saoPauloManaus(nil))
	require.NoError(t, err)
	assertInvariants(t, res)
	assert.Equal(t, 7, res.NarrativeStats.Fallback)
	assert.Equal(t, itinerary.SourceFallback, res.ObservationsSource)
	for _, d := range res.Days {
		assert.Equal(t, itinerary.SourceFallback, d.NarrativeSource)
	}
}

func TestPlanIsIdempotent(t *testing.T) {
	p, _ := newPlanner(t, echoGenerator{})

	a, err := p.Plan(context.Background(), saoPauloManaus(ceiling(5000)))
	require.NoError(t, err)
	b, err := p.Plan(context.Background(), saoPauloManaus(ceiling(5000)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlanSameOriginAndDestinationGeocodesOnce(t *testing.T) {
	p, geo := newPlanner(t, nil)
	req := saoPauloManaus(nil)
	req.Origin = "Rio"
	req.Destination = " rio "

	res, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	assertInvariants(t, res)
	assert.Equal(t, 1, geo.calls["Rio"])
	assert.Equal(t, 0, geo.calls["rio"])
	assert.Equal(t, distance.ModeGround, res.Mode)
}

func TestPlanRejectsInvalidRequests(t *testing.T) {
	p, _ := newPlanner(t, nil)

	tests := []struct {
		name   string
		mutate func(*TripRequest)
		code   string
	}{
		{"end before start", func(r *TripRequest) { r.EndDate = date("2025-10-30") }, planerrors.ErrCodeInvalidRequest},
		{"no travelers", func(r *TripRequest) { r.Travelers = 0 }, planerrors.ErrCodeInvalidRequest},
		{"unknown profile", func(r *TripRequest) { r.Profile = "luxury" }, planerrors.ErrCodeInvalidProfile},
		{"missing origin", func(r *TripRequest) { r.Origin = " " }, planerrors.ErrCodeInvalidRequest},
		{"negative ceiling", func(r *TripRequest) { r.Ceiling = ceiling(-1) }, planerrors.ErrCodeInvalidRequest},
		{"too long", func(r *TripRequest) { r.EndDate = date("2026-06-01") }, planerrors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := saoPauloManaus(nil)
			tt.mutate(&req)
			res, err := p.Plan(context.Background(), req)
			assert.Nil(t, res)
			assert.True(t, planerrors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestPlanCancelledContext(t *testing.T) {
	p, _ := newPlanner(t, echoGenerator{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Plan(ctx, saoPauloManaus(nil))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanInvariantsAcrossInputs(t *testing.T) {
	p, _ := newPlanner(t, nil)

	destinations := []string{"Manaus", "Rio de Janeiro", "Belém", "Curitiba"}
	ceilings := []*decimal.Decimal{nil, ceiling(300), ceiling(2500), ceiling(100000)}

	for _, dest := range destinations {
		for _, prof := range costmodel.Profiles {
			for days := 1; days <= 5; days += 2 {
				for _, c := range ceilings {
					req := TripRequest{
						Origin:      "São Paulo",
						Destination: dest,
						StartDate:   date("2025-03-10"),
						EndDate:     date("2025-03-10").AddDate(0, 0, days-1),
						Travelers:   1 + days%3,
						Profile:     prof,
						Themes:      []string{"cultura"},
						Ceiling:     c,
					}
					res, err := p.Plan(context.Background(), req)
					require.NoError(t, err)
					assertInvariants(t, res)
					if c == nil {
						assert.Empty(t, res.Adaptations)
					}
				}
			}
		}
	}
}
