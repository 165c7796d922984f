package costmodel

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/decision/distance"
	planerrors "trip-planner/pkg/errors"
)

const spManausKm = 2689.465

func roundTrip(mode distance.Mode, km float64) []Leg {
	hours := km / 700
	if mode == distance.ModeGround {
		hours = km / 80
	}
	return []Leg{
		{Mode: mode, Origin: "São Paulo, SP", Destination: "Manaus, AM", DistanceKm: km, DurationHours: hours},
		{Mode: mode, Origin: "Manaus, AM", Destination: "São Paulo, SP", DistanceKm: km, DurationHours: hours, Return: true},
	}
}

func newModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(DefaultRateCard())
	require.NoError(t, err)
	return m
}

func sumItems(b *Breakdown) decimal.Decimal {
	s := decimal.Zero
	for _, it := range b.Items {
		s = s.Add(it.Amount)
	}
	return s
}

func sumDays(b *Breakdown) decimal.Decimal {
	s := decimal.Zero
	for _, d := range b.DailyCosts {
		s = s.Add(d)
	}
	return s
}

func TestPriceSaoPauloManaus(t *testing.T) {
	m := newModel(t)

	b, err := m.Price(Trip{
		Legs:      roundTrip(distance.ModeFlight, spManausKm),
		Days:      7,
		Travelers: 2,
		Profile:   Balanced,
		Themes:    []string{"natureza", "cultura"},
		Currency:  "BRL",
	})
	require.NoError(t, err)

	total, _ := b.Total.Float64()
	assert.InDelta(t, 6414.08, total, 0.05)
	require.Len(t, b.Items, 5)
	assert.Equal(t, CategoryTransport, b.Items[0].Category)
	assert.Equal(t, CategoryTransport, b.Items[1].Category)
	assert.Equal(t, CategoryLodging, b.Items[2].Category)
	assert.Equal(t, 12, b.Items[2].Quantity)
	assert.Equal(t, CategoryFood, b.Items[3].Category)
	assert.Equal(t, CategoryActivity, b.Items[4].Category)
	for _, it := range b.Items {
		assert.Equal(t, "BRL", it.Currency)
		assert.True(t, it.Amount.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))))
	}

	assert.True(t, b.Total.Equal(sumItems(b)))
	assert.True(t, b.Total.Equal(sumDays(b)))
	assert.Len(t, b.DailyCosts, 7)
	require.Len(t, b.Legs, 2)
	assert.True(t, b.Legs[0].Price.Equal(b.Items[0].Amount))
	assert.True(t, b.HasMode(distance.ModeFlight))
}

func TestPriceProfilesAreMonotonic(t *testing.T) {
	m := newModel(t)

	var prev decimal.Decimal
	for i, p := range Profiles {
		b, err := m.Price(Trip{Legs: roundTrip(distance.ModeFlight, spManausKm), Days: 4, Travelers: 1, Profile: p})
		require.NoError(t, err)
		if i > 0 {
			assert.True(t, b.Total.GreaterThan(prev), "profile %s should cost more", p)
		}
		prev = b.Total
	}
}

func TestPriceSingleDayHasNoLodging(t *testing.T) {
	m := newModel(t)

	b, err := m.Price(Trip{Legs: roundTrip(distance.ModeGround, 360), Days: 1, Travelers: 3, Profile: Economic})
	require.NoError(t, err)

	for _, it := range b.Items {
		assert.NotEqual(t, CategoryLodging, it.Category)
	}
	require.Len(t, b.DailyCosts, 1)
	assert.True(t, b.DailyCosts[0].Equal(b.Total))
	assert.True(t, b.Total.IsPositive())
}

func TestFlightMinimumFare(t *testing.T) {
	m := newModel(t)

	fare, err := m.Fare(Leg{Mode: distance.ModeFlight, DistanceKm: 520, DurationHours: 520.0 / 700}, Balanced)
	require.NoError(t, err)
	assert.Equal(t, "250", fare.String())

	fare, err = m.Fare(Leg{Mode: distance.ModeFlight, DistanceKm: 520, DurationHours: 520.0 / 700}, Premium)
	require.NoError(t, err)
	assert.Equal(t, "375", fare.String())
}

func TestThemeDensityCapsAtMax(t *testing.T) {
	d := DefaultRateCard().ThemeDensity
	assert.InDelta(t, 0.5, d.Factor(0), 1e-9)
	assert.InDelta(t, 1.0, d.Factor(2), 1e-9)
	assert.InDelta(t, 1.25, d.Factor(3), 1e-9)
	assert.InDelta(t, 1.25, d.Factor(9), 1e-9)
	assert.Equal(t, 2, countThemes([]string{"Cultura", "cultura ", "natureza", ""}))
}

func TestPriceRejectsBadInput(t *testing.T) {
	m := newModel(t)

	_, err := m.Price(Trip{Days: 2, Travelers: 1, Profile: "luxury"})
	assert.True(t, planerrors.Is(err, planerrors.ErrCodeInvalidProfile))

	_, err = m.Price(Trip{Days: 0, Travelers: 1, Profile: Balanced})
	assert.True(t, planerrors.Is(err, planerrors.ErrCodeInvalidRequest))

	_, err = m.Price(Trip{Days: 1, Travelers: 0, Profile: Balanced})
	assert.True(t, planerrors.Is(err, planerrors.ErrCodeInvalidRequest))

	_, err = m.Price(Trip{Legs: []Leg{{Mode: "teleport", DistanceKm: 10}}, Days: 1, Travelers: 1, Profile: Balanced})
	assert.True(t, planerrors.Is(err, planerrors.ErrCodeInvalidRequest))
}

func TestRateCardValidate(t *testing.T) {
	require.NoError(t, DefaultRateCard().Validate())

	card := DefaultRateCard()
	card.Food.Multipliers.Premium = 0.9
	assert.ErrorContains(t, card.Validate(), "food")

	card = DefaultRateCard()
	card.Flight.PerKm = 0
	assert.ErrorContains(t, card.Validate(), "flight")

	_, err := NewModel(card)
	assert.Error(t, err)
}

func TestParseProfile(t *testing.T) {
	tests := map[string]Profile{
		"econômico":   Economic,
		"economico":   Economic,
		"economic":    Economic,
		"equilibrado": Balanced,
		"":            Balanced,
		"PREMIUM":     Premium,
	}
	for in, want := range tests {
		got, err := ParseProfile(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseProfile("luxo")
	assert.True(t, planerrors.Is(err, planerrors.ErrCodeInvalidProfile))

	next, ok := Premium.Downgrade()
	assert.True(t, ok)
	assert.Equal(t, Balanced, next)
	_, ok = Economic.Downgrade()
	assert.False(t, ok)
	assert.Equal(t, "equilibrado", Balanced.Portuguese())
}
