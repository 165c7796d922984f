// Package advice turns a finished plan into traveler suggestions by
// evaluating a list of threshold rules.
package advice

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"trip-planner/decision/costmodel"
)

// RuleType defines what a rule inspects.
type RuleType string

const (
	RuleTypeCeilingNotMet    RuleType = "ceiling_not_met"
	RuleTypeUnmatchedTheme   RuleType = "unmatched_theme"
	RuleTypeDominantCategory RuleType = "dominant_category"
	RuleTypeLongTransit      RuleType = "long_transit"
	RuleTypeTrimmedDuration  RuleType = "trimmed_duration"
)

// Severity grades a suggestion.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule is one advice rule. Threshold meaning depends on Type: a share in
// [0,1] for dominant_category, hours for long_transit, unused otherwise.
type Rule struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      RuleType `json:"type"`
	Severity  Severity `json:"severity"`
	Threshold float64  `json:"threshold"`
	Enabled   bool     `json:"enabled"`
}

// Suggestion is a rule finding.
type Suggestion struct {
	RuleID   string   `json:"rule_id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Input is the plan summary the rules read.
type Input struct {
	Destination     string
	Currency        string
	CeilingMet      bool
	Ceiling         *decimal.Decimal
	Total           decimal.Decimal
	CategoryTotals  map[costmodel.Category]decimal.Decimal
	UnmatchedThemes []string
	TransitHours    float64
	RequestedDays   int
	EffectiveDays   int
}

// Result is the evaluation outcome.
type Result struct {
	Suggestions []Suggestion `json:"suggestions"`
	RulesRan    int          `json:"rules_ran"`
	// Defaulted is true when no rule fired and generic tips were returned.
	Defaulted bool `json:"defaulted"`
}

// Messages returns the suggestion texts in order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Suggestions))
	for i, s := range r.Suggestions {
		out[i] = s.Message
	}
	return out
}

// Engine evaluates rules in registration order.
type Engine struct {
	rules []Rule
}

func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// AddRule appends a rule.
func (e *Engine) AddRule(r Rule) {
	e.rules = append(e.rules, r)
}

// Evaluate runs every enabled rule. When none fires, generic tips are returned.
func (e *Engine) Evaluate(in Input) Result {
	res := Result{Suggestions: make([]Suggestion, 0)}

	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		res.RulesRan++
		for _, msg := range evaluateRule(rule, in) {
			res.Suggestions = append(res.Suggestions, Suggestion{RuleID: rule.ID, Message: msg, Severity: rule.Severity})
		}
	}

	if len(res.Suggestions) == 0 {
		res.Defaulted = true
		for _, msg := range genericTips {
			res.Suggestions = append(res.Suggestions, Suggestion{RuleID: "generic", Message: msg, Severity: SeverityInfo})
		}
	}
	return res
}

var genericTips = []string{
	"Use local public transport for short trips.",
	"Look for set lunch menus to save on meals.",
	"Alternate paid attractions with free activities.",
}

var categoryTips = map[costmodel.Category]string{
	costmodel.CategoryTransport: "consider booking earlier or travelling on flexible dates",
	costmodel.CategoryLodging:   "consider sharing rooms or staying in guesthouses",
	costmodel.CategoryFood:      "consider set lunch menus and local markets",
	costmodel.CategoryActivity:  "consider free attractions on alternating days",
}

func evaluateRule(r Rule, in Input) []string {
	switch r.Type {
	case RuleTypeCeilingNotMet:
		if in.CeilingMet || in.Ceiling == nil {
			return nil
		}
		return []string{
			fmt.Sprintf("The best plan is %s %s above the budget ceiling.", in.Total.Sub(*in.Ceiling).StringFixed(2), in.Currency),
			"Consider reducing the number of travelers or sharing rooms.",
			"Raise the budget ceiling or travel in the low season.",
			"Choose only free attractions for some days.",
		}

	case RuleTypeUnmatchedTheme:
		out := make([]string, 0, len(in.UnmatchedThemes))
		for _, th := range in.UnmatchedThemes {
			out = append(out, fmt.Sprintf("No catalog attractions match %q in %s; look for a local guide or pick another theme.", th, in.Destination))
		}
		return out

	case RuleTypeDominantCategory:
		if !in.Total.IsPositive() {
			return nil
		}
		cats := make([]costmodel.Category, 0, len(in.CategoryTotals))
		for c := range in.CategoryTotals {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

		var out []string
		for _, c := range cats {
			share, _ := in.CategoryTotals[c].Div(in.Total).Float64()
			tip, ok := categoryTips[c]
			if !ok || share <= r.Threshold {
				continue
			}
			out = append(out, fmt.Sprintf("%s is %.0f%% of the budget; %s.", categoryName(c), share*100, tip))
		}
		return out

	case RuleTypeLongTransit:
		if in.TransitHours > r.Threshold {
			return []string{fmt.Sprintf("Transit totals %.1f h; consider breaking the journey with a stopover.", in.TransitHours)}
		}

	case RuleTypeTrimmedDuration:
		if in.RequestedDays > in.EffectiveDays {
			return []string{fmt.Sprintf("The trip was shortened by %d day(s) to fit the budget; a higher ceiling restores them.", in.RequestedDays-in.EffectiveDays)}
		}
	}
	return nil
}

func categoryName(c costmodel.Category) string {
	switch c {
	case costmodel.CategoryTransport:
		return "Transport"
	case costmodel.CategoryLodging:
		return "Lodging"
	case costmodel.CategoryFood:
		return "Food"
	case costmodel.CategoryActivity:
		return "Activities"
	default:
		return string(c)
	}
}

func defaultRules() []Rule {
	return []Rule{
		{
			ID:       "ceiling-not-met",
			Name:     "Ceiling not met",
			Type:     RuleTypeCeilingNotMet,
			Severity: SeverityWarning,
			Enabled:  true,
		},
		{
			ID:       "trimmed-duration",
			Name:     "Trip shortened",
			Type:     RuleTypeTrimmedDuration,
			Severity: SeverityInfo,
			Enabled:  true,
		},
		{
			ID:       "unmatched-theme",
			Name:     "Theme without attractions",
			Type:     RuleTypeUnmatchedTheme,
			Severity: SeverityInfo,
			Enabled:  true,
		},
		{
			ID:        "dominant-category",
			Name:      "Dominant cost category",
			Type:      RuleTypeDominantCategory,
			Severity:  SeverityInfo,
			Threshold: 0.5,
			Enabled:   true,
		},
		{
			ID:        "long-transit",
			Name:      "Long transit",
			Type:      RuleTypeLongTransit,
			Severity:  SeverityInfo,
			Threshold: 24,
			Enabled:   true,
		},
	}
}
