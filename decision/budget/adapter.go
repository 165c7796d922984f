// Package budget fits a priced trip under an optional ceiling by applying
// ordered, greedy adaptation strategies.
package budget

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trip-planner/decision/costmodel"
)

// Status summarizes how the ceiling was handled.
type Status string

const (
	// StatusNoCeiling: no ceiling was given, adaptation was not attempted.
	StatusNoCeiling Status = "no_ceiling"
	// StatusWithinCeiling: the unadapted plan already fits.
	StatusWithinCeiling Status = "within_ceiling"
	// StatusAdapted: at least one step was applied and the plan now fits.
	StatusAdapted Status = "adapted"
	// StatusCeilingNotMet: strategies are exhausted and the best plan is still over.
	StatusCeilingNotMet Status = "ceiling_not_met"
)

// Pricer prices a parameter set.
type Pricer interface {
	Price(p Params) (*costmodel.Breakdown, error)
}

// PricerFunc adapts a function to Pricer.
type PricerFunc func(p Params) (*costmodel.Breakdown, error)

func (f PricerFunc) Price(p Params) (*costmodel.Breakdown, error) { return f(p) }

// Record is one applied adaptation step.
type Record struct {
	Strategy   string          `json:"strategy"`
	Parameter  string          `json:"parameter"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	CostBefore decimal.Decimal `json:"cost_before"`
	CostAfter  decimal.Decimal `json:"cost_after"`
	Delta      decimal.Decimal `json:"delta"`
}

// Outcome is the adapter's result.
type Outcome struct {
	Params         Params
	Breakdown      *costmodel.Breakdown
	BaselineParams Params
	Baseline       *costmodel.Breakdown
	Records        []Record
	Status         Status
	CeilingMet     bool
}

// Savings is the baseline total minus the final total.
func (o *Outcome) Savings() decimal.Decimal {
	return o.Baseline.Total.Sub(o.Breakdown.Total)
}

// Adapter runs strategies in order. It keeps no state between calls.
type Adapter struct {
	strategies []Strategy
	logger     zerolog.Logger
}

func NewAdapter(strategies []Strategy, logger zerolog.Logger) *Adapter {
	return &Adapter{strategies: strategies, logger: logger}
}

// Fit prices start and, when ceiling is set and exceeded, walks the
// strategies in order. Each strategy is stepped until the plan fits, the
// strategy is exhausted, or a step stops lowering the total. There is no
// backtracking: a later strategy never undoes an earlier one.
func (a *Adapter) Fit(ceiling *decimal.Decimal, start Params, pricer Pricer) (*Outcome, error) {
	baseline, err := pricer.Price(start)
	if err != nil {
		return nil, fmt.Errorf("price baseline: %w", err)
	}
	out := &Outcome{
		Params:         start,
		Breakdown:      baseline,
		BaselineParams: start,
		Baseline:       baseline,
		Records:        make([]Record, 0),
	}

	if ceiling == nil || !ceiling.IsPositive() {
		out.Status = StatusNoCeiling
		out.CeilingMet = true
		return out, nil
	}
	if baseline.Total.LessThanOrEqual(*ceiling) {
		out.Status = StatusWithinCeiling
		out.CeilingMet = true
		return out, nil
	}

	fits := func() bool { return out.Breakdown.Total.LessThanOrEqual(*ceiling) }

	for _, s := range a.strategies {
		for !fits() {
			next, ok := s.Step(out.Params)
			if !ok {
				break
			}
			priced, err := pricer.Price(next)
			if err != nil {
				return nil, fmt.Errorf("%s: price %+v: %w", s.Name(), next, err)
			}
			if !priced.Total.LessThan(out.Breakdown.Total) {
				a.logger.Debug().Str("strategy", s.Name()).
					Str("total", priced.Total.StringFixed(2)).
					Msg("step did not lower the total, skipping strategy")
				break
			}

			rec := Record{
				Strategy:   s.Name(),
				Parameter:  s.Parameter(),
				From:       s.Describe(out.Params),
				To:         s.Describe(next),
				CostBefore: out.Breakdown.Total,
				CostAfter:  priced.Total,
				Delta:      priced.Total.Sub(out.Breakdown.Total),
			}
			out.Records = append(out.Records, rec)
			a.logger.Debug().Str("strategy", rec.Strategy).Str("from", rec.From).Str("to", rec.To).
				Str("cost_after", rec.CostAfter.StringFixed(2)).Msg("adaptation applied")

			out.Params = next
			out.Breakdown = priced
		}
		if fits() {
			break
		}
	}

	out.CeilingMet = fits()
	if out.CeilingMet {
		out.Status = StatusAdapted
	} else {
		out.Status = StatusCeilingNotMet
	}
	return out, nil
}
