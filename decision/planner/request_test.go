package planner

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/decision/costmodel"
)

func TestValidateNormalizes(t *testing.T) {
	zero := decimal.Zero
	req := TripRequest{
		Origin:      "  São Paulo ",
		Destination: "Manaus",
		StartDate:   time.Date(2025, 11, 1, 15, 30, 0, 0, time.FixedZone("BRT", -3*3600)),
		EndDate:     time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		Travelers:   1,
		Themes:      []string{" Cultura", "cultura", "", "natureza"},
		Ceiling:     &zero,
		Currency:    "brl",
	}

	out, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", out.Origin)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), out.StartDate)
	assert.Equal(t, 3, out.Days())
	assert.Equal(t, costmodel.Balanced, out.Profile)
	assert.Equal(t, []string{"Cultura", "natureza"}, out.Themes)
	assert.Nil(t, out.Ceiling)
	assert.Equal(t, "BRL", out.Currency)

	// the caller's request is untouched
	assert.Equal(t, "  São Paulo ", req.Origin)
	assert.Len(t, req.Themes, 4)
}

func TestValidateCopiesCeiling(t *testing.T) {
	c := decimal.NewFromInt(800)
	req := TripRequest{Origin: "a", Destination: "b", StartDate: date("2025-01-01"), EndDate: date("2025-01-01"), Travelers: 1, Ceiling: &c}

	out, err := req.Validate()
	require.NoError(t, err)
	require.NotNil(t, out.Ceiling)
	assert.NotSame(t, &c, out.Ceiling)
	assert.Equal(t, 1, out.Days())
	assert.Equal(t, DefaultCurrency, out.Currency)
}
