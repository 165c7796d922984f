package budget

import (
	"strconv"

	"trip-planner/decision/costmodel"
	"trip-planner/decision/distance"
)

// Params are the trip knobs the adapter may turn.
type Params struct {
	Profile costmodel.Profile `json:"profile"`
	Days    int               `json:"days"`
	Mode    distance.Mode     `json:"mode"`
}

// Strategy proposes one cheaper variant of p per call. ok is false when the
// strategy has nothing left to change.
type Strategy interface {
	Name() string
	Parameter() string
	Step(p Params) (next Params, ok bool)
	Describe(p Params) string
}

const (
	StrategyProfileDowngrade = "profile_downgrade"
	StrategyDurationTrim     = "duration_trim"
	StrategyModeSubstitution = "mode_substitution"
)

// ProfileDowngrade drops one spending tier per step.
type ProfileDowngrade struct{}

func (ProfileDowngrade) Name() string      { return StrategyProfileDowngrade }
func (ProfileDowngrade) Parameter() string { return "profile" }

func (ProfileDowngrade) Step(p Params) (Params, bool) {
	next, ok := p.Profile.Downgrade()
	if !ok {
		return p, false
	}
	p.Profile = next
	return p, true
}

func (ProfileDowngrade) Describe(p Params) string { return string(p.Profile) }

// DurationTrim removes the last day of the trip per step, never going below MinDays.
type DurationTrim struct {
	MinDays int
}

func (DurationTrim) Name() string      { return StrategyDurationTrim }
func (DurationTrim) Parameter() string { return "days" }

func (s DurationTrim) Step(p Params) (Params, bool) {
	floor := s.MinDays
	if floor < 1 {
		floor = 1
	}
	if p.Days-1 < floor {
		return p, false
	}
	p.Days--
	return p, true
}

func (DurationTrim) Describe(p Params) string { return strconv.Itoa(p.Days) }

// ModeSubstitution replaces flights with ground transport once, and only
// when ground travel over the route is plausible.
type ModeSubstitution struct {
	GroundPlausible bool
}

func (ModeSubstitution) Name() string      { return StrategyModeSubstitution }
func (ModeSubstitution) Parameter() string { return "mode" }

func (s ModeSubstitution) Step(p Params) (Params, bool) {
	if !s.GroundPlausible || p.Mode != distance.ModeFlight {
		return p, false
	}
	p.Mode = distance.ModeGround
	return p, true
}

func (ModeSubstitution) Describe(p Params) string { return string(p.Mode) }

// DefaultStrategies returns the fixed adaptation order: profile, then
// duration, then mode.
func DefaultStrategies(groundPlausible bool) []Strategy {
	return []Strategy{
		ProfileDowngrade{},
		DurationTrim{MinDays: 1},
		ModeSubstitution{GroundPlausible: groundPlausible},
	}
}
