package costmodel

import (
	"fmt"

	"trip-planner/decision/distance"
	planerrors "trip-planner/pkg/errors"
)

// Multipliers scales a base price per profile.
type Multipliers struct {
	Economic float64 `yaml:"economic" json:"economic"`
	Balanced float64 `yaml:"balanced" json:"balanced"`
	Premium  float64 `yaml:"premium" json:"premium"`
}

// For returns the multiplier for p.
func (m Multipliers) For(p Profile) (float64, error) {
	switch p {
	case Economic:
		return m.Economic, nil
	case Balanced:
		return m.Balanced, nil
	case Premium:
		return m.Premium, nil
	}
	return 0, planerrors.NewInvalidProfileError(string(p))
}

func (m Multipliers) validate(name string) error {
	if m.Economic <= 0 {
		return fmt.Errorf("%s: economic multiplier must be positive", name)
	}
	if !(m.Economic < m.Balanced && m.Balanced < m.Premium) {
		return fmt.Errorf("%s: multipliers must increase economic < balanced < premium (got %v, %v, %v)",
			name, m.Economic, m.Balanced, m.Premium)
	}
	return nil
}

// CategoryRate is a base per-unit price and its profile scaling.
type CategoryRate struct {
	Base        float64     `yaml:"base" json:"base"`
	Multipliers Multipliers `yaml:"multipliers" json:"multipliers"`
}

func (c CategoryRate) validate(name string) error {
	if c.Base <= 0 {
		return fmt.Errorf("%s: base must be positive", name)
	}
	return c.Multipliers.validate(name)
}

// ModeRate prices one traveler on one leg: PerKm*km + PerHour*hours, never
// below MinFare.
type ModeRate struct {
	PerKm   float64 `yaml:"per_km" json:"per_km"`
	PerHour float64 `yaml:"per_hour" json:"per_hour"`
	MinFare float64 `yaml:"min_fare" json:"min_fare"`
}

func (m ModeRate) validate(name string) error {
	if m.PerKm <= 0 {
		return fmt.Errorf("%s: per_km must be positive", name)
	}
	if m.PerHour < 0 || m.MinFare < 0 {
		return fmt.Errorf("%s: per_hour and min_fare must not be negative", name)
	}
	return nil
}

// ThemeDensity scales activity spend by interest count:
// Base + PerTheme*min(themes, MaxThemes).
type ThemeDensity struct {
	Base      float64 `yaml:"base" json:"base"`
	PerTheme  float64 `yaml:"per_theme" json:"per_theme"`
	MaxThemes int     `yaml:"max_themes" json:"max_themes"`
}

func (d ThemeDensity) Factor(themes int) float64 {
	if themes > d.MaxThemes {
		themes = d.MaxThemes
	}
	if themes < 0 {
		themes = 0
	}
	return d.Base + d.PerTheme*float64(themes)
}

// RateCard is the read-only pricing table. Build once and pass by value.
type RateCard struct {
	// Lodging is priced per traveler per night.
	Lodging CategoryRate `yaml:"lodging" json:"lodging"`
	// Food is priced per traveler per day.
	Food CategoryRate `yaml:"food" json:"food"`
	// Activities are priced per traveler per day, scaled by ThemeDensity.
	Activities   CategoryRate `yaml:"activities" json:"activities"`
	ThemeDensity ThemeDensity `yaml:"theme_density" json:"theme_density"`
	// Transport scales fares by profile (seat class, flexibility).
	Transport Multipliers `yaml:"transport" json:"transport"`
	Flight    ModeRate    `yaml:"flight" json:"flight"`
	Ground    ModeRate    `yaml:"ground" json:"ground"`
}

// DefaultRateCard returns the built-in BRL rate card.
func DefaultRateCard() RateCard {
	return RateCard{
		Lodging: CategoryRate{
			Base:        160,
			Multipliers: Multipliers{Economic: 0.55, Balanced: 1.0, Premium: 2.4},
		},
		Food: CategoryRate{
			Base:        80,
			Multipliers: Multipliers{Economic: 0.75, Balanced: 1.0, Premium: 1.5},
		},
		Activities: CategoryRate{
			Base:        50,
			Multipliers: Multipliers{Economic: 0.75, Balanced: 1.0, Premium: 1.5},
		},
		ThemeDensity: ThemeDensity{Base: 0.5, PerTheme: 0.25, MaxThemes: 3},
		Transport:    Multipliers{Economic: 0.9, Balanced: 1.0, Premium: 1.5},
		Flight:       ModeRate{PerKm: 0.22, PerHour: 20, MinFare: 250},
		Ground:       ModeRate{PerKm: 0.09, PerHour: 1.5, MinFare: 20},
	}
}

// Validate checks every rate is positive and multipliers increase with profile.
func (r RateCard) Validate() error {
	if err := r.Lodging.validate("lodging"); err != nil {
		return err
	}
	if err := r.Food.validate("food"); err != nil {
		return err
	}
	if err := r.Activities.validate("activities"); err != nil {
		return err
	}
	if err := r.Transport.validate("transport"); err != nil {
		return err
	}
	if err := r.Flight.validate("flight"); err != nil {
		return err
	}
	if err := r.Ground.validate("ground"); err != nil {
		return err
	}
	if r.ThemeDensity.Base <= 0 || r.ThemeDensity.PerTheme < 0 || r.ThemeDensity.MaxThemes < 0 {
		return fmt.Errorf("theme_density: base must be positive, per_theme and max_themes non-negative")
	}
	return nil
}

func (r RateCard) modeRate(m distance.Mode) (ModeRate, error) {
	switch m {
	case distance.ModeFlight:
		return r.Flight, nil
	case distance.ModeGround:
		return r.Ground, nil
	}
	return ModeRate{}, planerrors.NewInvalidRequestError("mode", fmt.Sprintf("unknown transport mode %q", m))
}
