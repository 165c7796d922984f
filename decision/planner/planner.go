// Package planner sequences geocoding, distance, pricing, budget
// adaptation, itinerary layout and narrative enrichment into a plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trip-planner/decision/advice"
	"trip-planner/decision/budget"
	"trip-planner/decision/climate"
	"trip-planner/decision/costmodel"
	"trip-planner/decision/distance"
	"trip-planner/decision/geocode"
	"trip-planner/decision/itinerary"
	"trip-planner/decision/narrative"
	planerrors "trip-planner/pkg/errors"
)

// PlanResult is the assembled plan.
type PlanResult struct {
	ID          uuid.UUID
	GeneratedAt time.Time

	Origin      geocode.GeoPoint
	Destination geocode.GeoPoint
	Currency    string

	Total         decimal.Decimal
	BaselineTotal decimal.Decimal
	// Savings is the unadapted total minus the final total.
	Savings decimal.Decimal
	Legs    []costmodel.Leg
	Items   []costmodel.CostItem
	Days    []itinerary.DayPlan

	Observations       string
	ObservationsSource string
	NarrativeStats     narrative.Stats

	TransitHours float64
	// FlightTime is set ("12.3 h") only when a flight leg exists.
	FlightTime   string
	ClimateRisk  climate.Risk
	CarbonKgCO2e float64

	Adaptations      []budget.Record
	AdaptationStatus budget.Status
	CeilingMet       bool
	Ceiling          *decimal.Decimal
	Suggestions      []string
	UnmatchedThemes  []string

	RequestedProfile costmodel.Profile
	Profile          costmodel.Profile
	Mode             distance.Mode
	Travelers        int
	Themes           []string

	RequestedStart time.Time
	RequestedEnd   time.Time
	EffectiveStart time.Time
	EffectiveEnd   time.Time
}

// PeriodAdjusted reports whether the effective range differs from the request.
func (r *PlanResult) PeriodAdjusted() bool {
	return !r.EffectiveStart.Equal(r.RequestedStart) || !r.EffectiveEnd.Equal(r.RequestedEnd)
}

// Deps wires the planner's collaborators. Geocoder and Model are required.
type Deps struct {
	Geocoder  geocode.Geocoder
	Estimator *distance.Estimator
	Model     *costmodel.Model
	Builder   *itinerary.Builder
	Enricher  *narrative.Enricher
	Advisor   *advice.Engine
	Logger    zerolog.Logger
	Tracer    trace.Tracer
	Clock     func() time.Time
	NewID     func() uuid.UUID
}

// Planner is stateless between calls and safe for concurrent use.
type Planner struct {
	geocoder  geocode.Geocoder
	estimator *distance.Estimator
	model     *costmodel.Model
	builder   *itinerary.Builder
	enricher  *narrative.Enricher
	advisor   *advice.Engine
	logger    zerolog.Logger
	tracer    trace.Tracer
	clock     func() time.Time
	newID     func() uuid.UUID
}

func New(d Deps) (*Planner, error) {
	if d.Geocoder == nil {
		return nil, errors.New("planner: geocoder is required")
	}
	if d.Model == nil {
		return nil, errors.New("planner: cost model is required")
	}
	p := &Planner{
		geocoder:  d.Geocoder,
		estimator: d.Estimator,
		model:     d.Model,
		builder:   d.Builder,
		enricher:  d.Enricher,
		advisor:   d.Advisor,
		logger:    d.Logger,
		tracer:    d.Tracer,
		clock:     d.Clock,
		newID:     d.NewID,
	}
	if p.estimator == nil {
		p.estimator = distance.NewEstimator(distance.DefaultThresholds())
	}
	if p.builder == nil {
		p.builder = itinerary.NewBuilder(nil)
	}
	if p.enricher == nil {
		p.enricher = narrative.NewEnricher(nil, narrative.DefaultConfig(), d.Logger)
	}
	if p.advisor == nil {
		p.advisor = advice.NewEngine()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("trip-planner/planner")
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.New
	}
	return p, nil
}

// Plan runs the full pipeline. Invalid input and unresolvable places are
// fatal; an unreachable ceiling and narrative failures are reported in the
// result. If ctx is cancelled no result is returned.
func (p *Planner) Plan(ctx context.Context, in TripRequest) (_ *PlanResult, err error) {
	ctx, span := p.tracer.Start(ctx, "planner.Plan")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := in.Validate()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("trip.origin", req.Origin),
		attribute.String("trip.destination", req.Destination),
		attribute.Int("trip.days", req.Days()),
		attribute.Int("trip.travelers", req.Travelers),
		attribute.String("trip.profile", string(req.Profile)),
	)
	log := p.logger.With().Str("origin", req.Origin).Str("destination", req.Destination).Logger()

	origin, dest, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	est, err := p.estimator.Estimate(origin, dest)
	if err != nil {
		return nil, fmt.Errorf("estimate distance: %w", err)
	}
	log.Debug().Float64("km", est.DistanceKm).Str("mode", string(est.Mode)).Msg("distance estimated")

	pricer := budget.PricerFunc(func(bp budget.Params) (*costmodel.Breakdown, error) {
		return p.model.Price(costmodel.Trip{
			Legs:      p.legs(origin, dest, est.DistanceKm, bp.Mode),
			Days:      bp.Days,
			Travelers: req.Travelers,
			Profile:   bp.Profile,
			Themes:    req.Themes,
			Currency:  req.Currency,
		})
	})
	adapter := budget.NewAdapter(budget.DefaultStrategies(p.estimator.GroundPlausible(est.DistanceKm)), log)

	_, adaptSpan := p.tracer.Start(ctx, "planner.adapt")
	outcome, err := adapter.Fit(req.Ceiling, budget.Params{Profile: req.Profile, Days: req.Days(), Mode: est.Mode}, pricer)
	if err != nil {
		adaptSpan.End()
		return nil, fmt.Errorf("fit budget: %w", err)
	}
	adaptSpan.SetAttributes(
		attribute.String("budget.status", string(outcome.Status)),
		attribute.Int("budget.records", len(outcome.Records)),
	)
	adaptSpan.End()

	effStart := req.StartDate
	effEnd := effStart.AddDate(0, 0, outcome.Params.Days-1)

	it, err := p.builder.Build(itinerary.Input{
		Start:          effStart,
		Days:           outcome.Params.Days,
		Themes:         req.Themes,
		DailyCosts:     outcome.Breakdown.DailyCosts,
		DestinationKey: dest.Key,
		Destination:    dest.Label,
	})
	if err != nil {
		return nil, fmt.Errorf("build itinerary: %w", err)
	}

	risk := climate.Assess(dest.Key, dest.Lat, effStart.Month())
	tc := narrative.TripContext{
		Origin:       origin.Label,
		Destination:  dest.Label,
		Start:        effStart,
		End:          effEnd,
		RequestedEnd: req.EndDate,
		Travelers:    req.Travelers,
		Profile:      outcome.Params.Profile,
		Themes:       req.Themes,
		Currency:     req.Currency,
		ClimateRisk:  risk.Label,
		Total:        outcome.Breakdown.Total,
	}

	enrichCtx, enrichSpan := p.tracer.Start(ctx, "planner.enrich")
	stats := p.enricher.Enrich(enrichCtx, it.Days, tc)
	obs, obsSource := p.enricher.Observations(enrichCtx, tc)
	enrichSpan.SetAttributes(
		attribute.Int("narrative.generated", stats.Generated),
		attribute.Int("narrative.fallback", stats.Fallback),
	)
	enrichSpan.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bd := outcome.Breakdown
	res := &PlanResult{
		ID:                 p.newID(),
		GeneratedAt:        p.clock().UTC(),
		Origin:             origin,
		Destination:        dest,
		Currency:           req.Currency,
		Total:              bd.Total,
		BaselineTotal:      outcome.Baseline.Total,
		Savings:            outcome.Savings(),
		Legs:               bd.Legs,
		Items:              bd.Items,
		Days:               it.Days,
		Observations:       obs,
		ObservationsSource: obsSource,
		NarrativeStats:     stats,
		TransitHours:       bd.TransitHours(),
		ClimateRisk:        risk,
		Adaptations:        outcome.Records,
		AdaptationStatus:   outcome.Status,
		CeilingMet:         outcome.CeilingMet,
		Ceiling:            req.Ceiling,
		UnmatchedThemes:    it.UnmatchedThemes,
		RequestedProfile:   req.Profile,
		Profile:            outcome.Params.Profile,
		Mode:               outcome.Params.Mode,
		Travelers:          req.Travelers,
		Themes:             req.Themes,
		RequestedStart:     req.StartDate,
		RequestedEnd:       req.EndDate,
		EffectiveStart:     effStart,
		EffectiveEnd:       effEnd,
	}
	if bd.HasMode(distance.ModeFlight) {
		res.FlightTime = fmt.Sprintf("%.1f h", res.TransitHours)
	}
	for _, l := range bd.Legs {
		res.CarbonKgCO2e += climate.LegKgCO2e(l.Mode, l.DistanceKm, req.Travelers)
	}

	res.Suggestions = p.advisor.Evaluate(advice.Input{
		Destination:     dest.Label,
		Currency:        req.Currency,
		CeilingMet:      outcome.CeilingMet,
		Ceiling:         req.Ceiling,
		Total:           bd.Total,
		CategoryTotals:  bd.CategoryTotals(),
		UnmatchedThemes: it.UnmatchedThemes,
		TransitHours:    res.TransitHours,
		RequestedDays:   req.Days(),
		EffectiveDays:   outcome.Params.Days,
	}).Messages()

	ev := log.Info()
	if !outcome.CeilingMet {
		ev = log.Warn().Err(planerrors.NewCeilingNotMetError(bd.Total.StringFixed(2), req.Ceiling.StringFixed(2)))
	}
	ev.Str("total", bd.Total.StringFixed(2)).
		Str("status", string(outcome.Status)).
		Int("adaptations", len(outcome.Records)).
		Int("days", outcome.Params.Days).
		Int("narrative_fallbacks", stats.Fallback).
		Msg("plan assembled")

	return res, nil
}

// resolve geocodes origin and destination, calling the geocoder at most
// once per distinct place.
func (p *Planner) resolve(ctx context.Context, req TripRequest) (geocode.GeoPoint, geocode.GeoPoint, error) {
	ctx, span := p.tracer.Start(ctx, "planner.geocode")
	defer span.End()

	seen := make(map[string]geocode.GeoPoint, 2)
	lookup := func(name string) (geocode.GeoPoint, error) {
		k := geocode.Normalize(name)
		if pt, ok := seen[k]; ok {
			return pt, nil
		}
		pt, err := p.geocoder.Resolve(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return geocode.GeoPoint{}, ctxErr
			}
			return geocode.GeoPoint{}, planerrors.NewGeocodeFailedError(name, err)
		}
		if pt.Key == "" {
			if key, ok := geocode.Key(name); ok {
				pt.Key = key
			}
		}
		seen[k] = pt
		return pt, nil
	}

	origin, err := lookup(req.Origin)
	if err != nil {
		span.SetStatus(codes.Error, "origin")
		return geocode.GeoPoint{}, geocode.GeoPoint{}, fmt.Errorf("resolve origin: %w", err)
	}
	dest, err := lookup(req.Destination)
	if err != nil {
		span.SetStatus(codes.Error, "destination")
		return geocode.GeoPoint{}, geocode.GeoPoint{}, fmt.Errorf("resolve destination: %w", err)
	}
	return origin, dest, nil
}

// legs returns the outbound and return legs for mode.
func (p *Planner) legs(origin, dest geocode.GeoPoint, km float64, mode distance.Mode) []costmodel.Leg {
	hours := p.estimator.ForMode(km, mode)
	return []costmodel.Leg{
		{Mode: mode, Origin: origin.Label, Destination: dest.Label, DistanceKm: km, DurationHours: hours},
		{Mode: mode, Origin: dest.Label, Destination: origin.Label, DistanceKm: km, DurationHours: hours, Return: true},
	}
}
