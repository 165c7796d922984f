package planner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trip-planner/decision/costmodel"
	planerrors "trip-planner/pkg/errors"
)

// MaxTripDays bounds a single plan.
const MaxTripDays = 90

const DefaultCurrency = "BRL"

// TripRequest is the planner input. Use Validate to obtain the normalized
// copy the pipeline runs on.
type TripRequest struct {
	Origin      string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Travelers   int
	Profile     costmodel.Profile
	Themes      []string
	// Ceiling is optional; nil or zero means no ceiling.
	Ceiling  *decimal.Decimal
	Currency string
}

// Days is the inclusive day count of the requested range.
func (r TripRequest) Days() int {
	return daysBetween(r.StartDate, r.EndDate)
}

// Validate checks r and returns a normalized copy: trimmed names, dates at
// UTC midnight, deduplicated themes, default profile and currency, and a
// zero ceiling dropped.
func (r TripRequest) Validate() (TripRequest, error) {
	out := r
	out.Origin = strings.TrimSpace(r.Origin)
	out.Destination = strings.TrimSpace(r.Destination)
	if out.Origin == "" {
		return TripRequest{}, planerrors.NewInvalidRequestError("origin", "origin is required")
	}
	if out.Destination == "" {
		return TripRequest{}, planerrors.NewInvalidRequestError("destination", "destination is required")
	}

	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return TripRequest{}, planerrors.NewInvalidRequestError("dates", "start and end dates are required")
	}
	out.StartDate = dateOnly(r.StartDate)
	out.EndDate = dateOnly(r.EndDate)
	if out.EndDate.Before(out.StartDate) {
		return TripRequest{}, planerrors.NewInvalidRequestError("end_date", "end date is before start date")
	}
	if n := out.Days(); n > MaxTripDays {
		return TripRequest{}, planerrors.NewInvalidRequestError("end_date", "trip is longer than 90 days")
	}

	if r.Travelers < 1 {
		return TripRequest{}, planerrors.NewInvalidRequestError("travelers", "at least one traveler is required")
	}

	if r.Profile == "" {
		out.Profile = costmodel.Balanced
	} else if !r.Profile.Valid() {
		return TripRequest{}, planerrors.NewInvalidProfileError(string(r.Profile))
	}

	if r.Ceiling != nil {
		if r.Ceiling.IsNegative() {
			return TripRequest{}, planerrors.NewInvalidRequestError("ceiling", "budget ceiling must not be negative")
		}
		if r.Ceiling.IsZero() {
			out.Ceiling = nil
		} else {
			c := *r.Ceiling
			out.Ceiling = &c
		}
	}

	out.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if out.Currency == "" {
		out.Currency = DefaultCurrency
	}

	seen := make(map[string]bool, len(r.Themes))
	out.Themes = make([]string, 0, len(r.Themes))
	for _, th := range r.Themes {
		t := strings.TrimSpace(th)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			continue
		}
		seen[k] = true
		out.Themes = append(out.Themes, t)
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(start, end time.Time) int {
	return int(dateOnly(end).Sub(dateOnly(start)).Hours()/24) + 1
}
