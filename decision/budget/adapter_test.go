package budget

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/decision/costmodel"
	"trip-planner/decision/distance"
)

const spManausKm = 2689.465

func pricerFor(t *testing.T, km float64, travelers int, themes []string) PricerFunc {
	t.Helper()
	model, err := costmodel.NewModel(costmodel.DefaultRateCard())
	require.NoError(t, err)
	est := distance.NewEstimator(distance.DefaultThresholds())

	return func(p Params) (*costmodel.Breakdown, error) {
		hours := est.ForMode(km, p.Mode)
		return model.Price(costmodel.Trip{
			Legs: []costmodel.Leg{
				{Mode: p.Mode, Origin: "A", Destination: "B", DistanceKm: km, DurationHours: hours},
				{Mode: p.Mode, Origin: "B", Destination: "A", DistanceKm: km, DurationHours: hours, Return: true},
			},
			Days:      p.Days,
			Travelers: travelers,
			Profile:   p.Profile,
			Themes:    themes,
			Currency:  "BRL",
		})
	}
}

func ceiling(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestFitWithoutCeilingIsNoop(t *testing.T) {
	a := NewAdapter(DefaultStrategies(true), zerolog.Nop())
	start := Params{Profile: costmodel.Premium, Days: 7, Mode: distance.ModeFlight}

	out, err := a.Fit(nil, start, pricerFor(t, spManausKm, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, StatusNoCeiling, out.Status)
	assert.True(t, out.CeilingMet)
	assert.Empty(t, out.Records)
	assert.Equal(t, start, out.Params)
	assert.True(t, out.Savings().IsZero())

	out, err = a.Fit(ceiling(0), start, pricerFor(t, spManausKm, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, StatusNoCeiling, out.Status)
}

func TestFitWithinCeiling(t *testing.T) {
	a := NewAdapter(DefaultStrategies(true), zerolog.Nop())
	start := Params{Profile: costmodel.Balanced, Days: 3, Mode: distance.ModeFlight}

	out, err := a.Fit(ceiling(100000), start, pricerFor(t, spManausKm, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, StatusWithinCeiling, out.Status)
	assert.Empty(t, out.Records)
}

func TestFitDowngradesProfileFirst(t *testing.T) {
	a := NewAdapter(DefaultStrategies(true), zerolog.Nop())
	start := Params{Profile: costmodel.Balanced, Days: 7, Mode: distance.ModeFlight}

	out, err := a.Fit(ceiling(5000), start, pricerFor(t, spManausKm, 2, []string{"natureza", "cultura"}))
	require.NoError(t, err)

	assert.Equal(t, StatusAdapted, out.Status)
	assert.True(t, out.CeilingMet)
	assert.Equal(t, 7, out.Params.Days)
	assert.Equal(t, costmodel.Economic, out.Params.Profile)
	assert.Equal(t, distance.ModeFlight, out.Params.Mode)
	require.Len(t, out.Records, 1)
	rec := out.Records[0]
	assert.Equal(t, StrategyProfileDowngrade, rec.Strategy)
	assert.Equal(t, "balanced", rec.From)
	assert.Equal(t, "economic", rec.To)
	assert.True(t, rec.Delta.IsNegative())
	assert.True(t, rec.CostAfter.Equal(out.Breakdown.Total))
	assert.True(t, out.Breakdown.Total.LessThanOrEqual(decimal.NewFromInt(5000)))
	assert.True(t, out.Savings().Equal(out.Baseline.Total.Sub(out.Breakdown.Total)))
}

func TestFitExhaustsStrategiesInOrder(t *testing.T) {
	a := NewAdapter(DefaultStrategies(true), zerolog.Nop())
	start := Params{Profile: costmodel.Balanced, Days: 7, Mode: distance.ModeFlight}

	out, err := a.Fit(ceiling(500), start, pricerFor(t, spManausKm, 2, []string{"natureza"}))
	require.NoError(t, err)

	assert.Equal(t, StatusCeilingNotMet, out.Status)
	assert.False(t, out.CeilingMet)
	assert.Equal(t, Params{Profile: costmodel.Economic, Days: 1, Mode: distance.ModeGround}, out.Params)

	require.Len(t, out.Records, 1+6+1)
	assert.Equal(t, StrategyProfileDowngrade, out.Records[0].Strategy)
	for _, r := range out.Records[1:7] {
		assert.Equal(t, StrategyDurationTrim, r.Strategy)
	}
	assert.Equal(t, "7", out.Records[1].From)
	assert.Equal(t, "1", out.Records[6].To)
	assert.Equal(t, StrategyModeSubstitution, out.Records[7].Strategy)
	assert.Equal(t, "flight", out.Records[7].From)
	assert.Equal(t, "ground", out.Records[7].To)

	for i := 1; i < len(out.Records); i++ {
		assert.True(t, out.Records[i].CostBefore.Equal(out.Records[i-1].CostAfter))
	}
}

func TestFitStopsTrimmingOnceItFits(t *testing.T) {
	a := NewAdapter(DefaultStrategies(true), zerolog.Nop())
	start := Params{Profile: costmodel.Economic, Days: 7, Mode: distance.ModeFlight}
	pricer := pricerFor(t, spManausKm, 2, nil)

	five, err := pricer.Price(Params{Profile: costmodel.Economic, Days: 5, Mode: distance.ModeFlight})
	require.NoError(t, err)
	limit := five.Total

	out, err := a.Fit(&limit, start, pricer)
	require.NoError(t, err)
	assert.Equal(t, StatusAdapted, out.Status)
	assert.Equal(t, 5, out.Params.Days)
	require.Len(t, out.Records, 2)
	assert.Equal(t, StrategyDurationTrim, out.Records[0].Strategy)
}

func TestFitSkipsImplausibleModeSubstitution(t *testing.T) {
	a := NewAdapter(DefaultStrategies(false), zerolog.Nop())
	start := Params{Profile: costmodel.Economic, Days: 1, Mode: distance.ModeFlight}

	out, err := a.Fit(ceiling(10), start, pricerFor(t, 6000, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, StatusCeilingNotMet, out.Status)
	assert.Empty(t, out.Records)
	assert.Equal(t, distance.ModeFlight, out.Params.Mode)
}

func TestFitPropagatesPricerErrors(t *testing.T) {
	a := NewAdapter(DefaultStrategies(true), zerolog.Nop())
	boom := errors.New("boom")

	_, err := a.Fit(nil, Params{}, PricerFunc(func(Params) (*costmodel.Breakdown, error) { return nil, boom }))
	assert.ErrorIs(t, err, boom)
}

func TestStrategies(t *testing.T) {
	p := Params{Profile: costmodel.Premium, Days: 2, Mode: distance.ModeGround}

	next, ok := ProfileDowngrade{}.Step(p)
	assert.True(t, ok)
	assert.Equal(t, costmodel.Balanced, next.Profile)

	next, ok = DurationTrim{MinDays: 1}.Step(p)
	assert.True(t, ok)
	assert.Equal(t, 1, next.Days)
	_, ok = DurationTrim{MinDays: 1}.Step(next)
	assert.False(t, ok)

	_, ok = ModeSubstitution{GroundPlausible: true}.Step(p)
	assert.False(t, ok, "already ground")
}
