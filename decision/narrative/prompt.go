package narrative

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"trip-planner/decision/costmodel"
	"trip-planner/decision/itinerary"
)

// TripContext is the plan-level information shared by every prompt.
type TripContext struct {
	Origin      string
	Destination string
	Start       time.Time
	End         time.Time
	// RequestedEnd differs from End when the trip was shortened.
	RequestedEnd time.Time
	Travelers    int
	Profile      costmodel.Profile
	Themes       []string
	Currency     string
	ClimateRisk  string
	Total        decimal.Decimal
}

func (tc TripContext) themes() string {
	if len(tc.Themes) == 0 {
		return "general sightseeing"
	}
	return strings.Join(tc.Themes, ", ")
}

func (tc TripContext) shortened() bool {
	return !tc.RequestedEnd.IsZero() && !tc.RequestedEnd.Equal(tc.End)
}

func slotText(acts []itinerary.Activity) string {
	if len(acts) == 0 {
		return "free time"
	}
	names := make([]string, len(acts))
	for i, a := range acts {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// DayPrompt builds the generator prompt for one day, truncated to maxChars.
func DayPrompt(day itinerary.DayPlan, tc TripContext, maxChars int) string {
	p := fmt.Sprintf(
		"Write a short, warm narrative (3 sentences at most) for %s in %s. "+
			"Morning: %s. Afternoon: %s. Evening: %s. "+
			"Estimated cost for the day: %s %s. Travel style: %s. Interests: %s. Climate risk: %s.",
		day.Date.Format("2006-01-02"), tc.Destination,
		slotText(day.Morning), slotText(day.Afternoon), slotText(day.Evening),
		day.Cost.StringFixed(2), tc.Currency, tc.Profile, tc.themes(), tc.ClimateRisk,
	)
	return truncate(p, maxChars)
}

// ObservationsPrompt builds the plan-level summary prompt, truncated to maxChars.
func ObservationsPrompt(tc TripContext, maxChars int) string {
	period := ""
	if tc.shortened() {
		period = fmt.Sprintf(" The trip was shortened to end on %s to fit the budget.", tc.End.Format("2006-01-02"))
	}
	p := fmt.Sprintf(
		"You are a travel assistant. Write a general note for a trip from %s to %s, %s to %s, "+
			"for %d travelers with a %s profile. Interests: %s. Estimated total: %s %s.%s "+
			"Mention the climate risk (%s). Be practical and inspiring.",
		tc.Origin, tc.Destination, tc.Start.Format("2006-01-02"), tc.End.Format("2006-01-02"),
		tc.Travelers, tc.Profile, tc.themes(), tc.Total.StringFixed(2), tc.Currency, period, tc.ClimateRisk,
	)
	return truncate(p, maxChars)
}

// FallbackDay is the deterministic narrative used when generation fails.
func FallbackDay(day itinerary.DayPlan, tc TripContext) string {
	return fmt.Sprintf(
		"%s in %s. Morning: %s. Afternoon: %s. Evening: %s. Estimated cost for the day: %s %s.",
		day.Date.Format("Monday, 2 January 2006"), tc.Destination,
		slotText(day.Morning), slotText(day.Afternoon), slotText(day.Evening),
		day.Cost.StringFixed(2), tc.Currency,
	)
}

// FallbackObservations is the deterministic plan note used when generation fails.
func FallbackObservations(tc TripContext) string {
	s := fmt.Sprintf(
		"Plan generated with automatic budget adaptation. Requested period: %s to %s.",
		tc.Start.Format("2006-01-02"), requestedEnd(tc).Format("2006-01-02"),
	)
	if tc.shortened() {
		s += fmt.Sprintf(" Adjusted period: %s to %s.", tc.Start.Format("2006-01-02"), tc.End.Format("2006-01-02"))
	}
	if tc.ClimateRisk != "" {
		s += " Climate risk: " + tc.ClimateRisk + "."
	}
	return s + " Currency: " + tc.Currency + "."
}

func requestedEnd(tc TripContext) time.Time {
	if tc.RequestedEnd.IsZero() {
		return tc.End
	}
	return tc.RequestedEnd
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
