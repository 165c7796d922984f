// Package costmodel prices a trip into ordered line items.
//
// All money is decimal. Unit prices are rounded to cents before being
// multiplied by quantities, so line items, day totals and the grand total
// always agree to the cent.
package costmodel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"trip-planner/decision/distance"
	planerrors "trip-planner/pkg/errors"
)

// Category classifies a cost item.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryLodging   Category = "lodging"
	CategoryFood      Category = "food"
	CategoryActivity  Category = "activity"
	CategoryOther     Category = "other"
)

// Leg is one transport segment. Price is filled in by the model.
type Leg struct {
	Mode          distance.Mode   `json:"mode"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DistanceKm    float64         `json:"distance_km"`
	DurationHours float64         `json:"duration_hours"`
	Return        bool            `json:"return"`
	Price         decimal.Decimal `json:"price"`
}

// Trip is the input to Price.
type Trip struct {
	Legs      []Leg
	Days      int
	Travelers int
	Profile   Profile
	Themes    []string
	Currency  string
}

// CostItem is a priced line. Amount == UnitPrice * Quantity.
type CostItem struct {
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

// Breakdown is the priced trip.
type Breakdown struct {
	Items []CostItem `json:"items"`
	Legs  []Leg      `json:"legs"`
	// DailyCosts has one entry per day. Outbound legs are charged to the
	// first day, return legs to the last day, each night to the day it starts.
	DailyCosts []decimal.Decimal `json:"daily_costs"`
	Total      decimal.Decimal   `json:"total"`
	Currency   string            `json:"currency"`
	Profile    Profile           `json:"profile"`
	Days       int               `json:"days"`
	Travelers  int               `json:"travelers"`
}

// CategoryTotals sums items per category.
func (b *Breakdown) CategoryTotals() map[Category]decimal.Decimal {
	out := make(map[Category]decimal.Decimal)
	for _, it := range b.Items {
		out[it.Category] = out[it.Category].Add(it.Amount)
	}
	return out
}

// TransitHours sums leg durations.
func (b *Breakdown) TransitHours() float64 {
	var h float64
	for _, l := range b.Legs {
		h += l.DurationHours
	}
	return h
}

// HasMode reports whether any leg uses m.
func (b *Breakdown) HasMode(m distance.Mode) bool {
	for _, l := range b.Legs {
		if l.Mode == m {
			return true
		}
	}
	return false
}

// Model prices trips against a fixed rate card. Safe for concurrent use.
type Model struct {
	card RateCard
}

// NewModel validates card and returns a model bound to it.
func NewModel(card RateCard) (*Model, error) {
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate card: %w", err)
	}
	return &Model{card: card}, nil
}

func (m *Model) Card() RateCard { return m.card }

// Fare returns the per-traveler price of one leg for profile p.
func (m *Model) Fare(leg Leg, p Profile) (decimal.Decimal, error) {
	rate, err := m.card.modeRate(leg.Mode)
	if err != nil {
		return decimal.Zero, err
	}
	mult, err := m.card.Transport.For(p)
	if err != nil {
		return decimal.Zero, err
	}
	fare := rate.PerKm*leg.DistanceKm + rate.PerHour*leg.DurationHours
	if fare < rate.MinFare {
		fare = rate.MinFare
	}
	return cents(fare * mult), nil
}

// Price builds the ordered cost items for t: transport legs, lodging, food,
// then activities.
func (m *Model) Price(t Trip) (*Breakdown, error) {
	if !t.Profile.Valid() {
		return nil, planerrors.NewInvalidProfileError(string(t.Profile))
	}
	if t.Days < 1 {
		return nil, planerrors.NewInvalidRequestError("days", "trip must last at least one day")
	}
	if t.Travelers < 1 {
		return nil, planerrors.NewInvalidRequestError("travelers", "at least one traveler is required")
	}

	travelers := decimal.NewFromInt(int64(t.Travelers))
	b := &Breakdown{
		Items:      make([]CostItem, 0, len(t.Legs)+3),
		Legs:       make([]Leg, 0, len(t.Legs)),
		DailyCosts: make([]decimal.Decimal, t.Days),
		Currency:   t.Currency,
		Profile:    t.Profile,
		Days:       t.Days,
		Travelers:  t.Travelers,
	}
	for i := range b.DailyCosts {
		b.DailyCosts[i] = decimal.Zero
	}
	last := t.Days - 1

	for _, leg := range t.Legs {
		fare, err := m.Fare(leg, t.Profile)
		if err != nil {
			return nil, err
		}
		leg.Price = fare.Mul(travelers)
		b.Legs = append(b.Legs, leg)

		direction := "outbound"
		day := 0
		if leg.Return {
			direction = "return"
			day = last
		}
		b.add(CostItem{
			Category:    CategoryTransport,
			Description: fmt.Sprintf("%s %s: %s → %s", leg.Mode, direction, leg.Origin, leg.Destination),
			Quantity:    t.Travelers,
			UnitPrice:   fare,
		})
		b.DailyCosts[day] = b.DailyCosts[day].Add(leg.Price)
	}

	if nights := t.Days - 1; nights > 0 {
		nightly, err := m.unit(m.card.Lodging, t.Profile, 1)
		if err != nil {
			return nil, err
		}
		b.add(CostItem{
			Category:    CategoryLodging,
			Description: fmt.Sprintf("Lodging (%s), %d nights", t.Profile, nights),
			Quantity:    nights * t.Travelers,
			UnitPrice:   nightly,
		})
		perNight := nightly.Mul(travelers)
		for d := 0; d < nights; d++ {
			b.DailyCosts[d] = b.DailyCosts[d].Add(perNight)
		}
	}

	meals, err := m.unit(m.card.Food, t.Profile, 1)
	if err != nil {
		return nil, err
	}
	b.add(CostItem{
		Category:    CategoryFood,
		Description: fmt.Sprintf("Meals (%s), %d days", t.Profile, t.Days),
		Quantity:    t.Days * t.Travelers,
		UnitPrice:   meals,
	})

	themes := countThemes(t.Themes)
	activities, err := m.unit(m.card.Activities, t.Profile, m.card.ThemeDensity.Factor(themes))
	if err != nil {
		return nil, err
	}
	b.add(CostItem{
		Category:    CategoryActivity,
		Description: fmt.Sprintf("Activities (%s), %d days, %d themes", t.Profile, t.Days, themes),
		Quantity:    t.Days * t.Travelers,
		UnitPrice:   activities,
	})

	perDay := meals.Add(activities).Mul(travelers)
	for d := range b.DailyCosts {
		b.DailyCosts[d] = b.DailyCosts[d].Add(perDay)
	}

	return b, nil
}

func (b *Breakdown) add(it CostItem) {
	it.Amount = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	it.Currency = b.Currency
	b.Items = append(b.Items, it)
	b.Total = b.Total.Add(it.Amount)
}

func (m *Model) unit(rate CategoryRate, p Profile, factor float64) (decimal.Decimal, error) {
	mult, err := rate.Multipliers.For(p)
	if err != nil {
		return decimal.Zero, err
	}
	return cents(rate.Base * mult * factor), nil
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func countThemes(themes []string) int {
	seen := make(map[string]struct{}, len(themes))
	for _, th := range themes {
		if k := strings.ToLower(strings.TrimSpace(th)); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}
