// Package narrative attaches prose to itinerary days. Text comes from an
// unreliable Generator; every failure degrades to a templated fallback so a
// day's narrative is never empty.
package narrative

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"trip-planner/decision/itinerary"
	planerrors "trip-planner/pkg/errors"
)

// Request is a single generation call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Generator produces text for a prompt. Implementations may fail or be slow.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config bounds the enricher's use of the generator.
type Config struct {
	Timeout        time.Duration `yaml:"timeout"`
	Concurrency    int           `yaml:"concurrency"`
	MaxPromptChars int           `yaml:"max_prompt_chars"`
	DayMaxTokens   int           `yaml:"day_max_tokens"`
	ObsMaxTokens   int           `yaml:"observations_max_tokens"`
	Temperature    float32       `yaml:"temperature"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:        8 * time.Second,
		Concurrency:    4,
		MaxPromptChars: 1200,
		DayMaxTokens:   150,
		ObsMaxTokens:   220,
		Temperature:    0.8,
	}
}

// Stats counts how each day's narrative was produced.
type Stats struct {
	Generated int
	Fallback  int
}

// Enricher is safe for concurrent use. A nil generator yields fallbacks only.
type Enricher struct {
	gen    Generator
	cfg    Config
	logger zerolog.Logger
}

func NewEnricher(gen Generator, cfg Config, logger zerolog.Logger) *Enricher {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = def.MaxPromptChars
	}
	return &Enricher{gen: gen, cfg: cfg, logger: logger}
}

// Enrich fills Narrative and NarrativeSource on every day. Days run
// concurrently on a bounded pool; each call gets its own timeout. Each
// worker writes only days[i], so no locking is needed.
func (e *Enricher) Enrich(ctx context.Context, days []itinerary.DayPlan, tc TripContext) Stats {
	var generated, fallback int64

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i := range days {
		i := i
		g.Go(func() error {
			day := &days[i]
			prompt := DayPrompt(*day, tc, e.cfg.MaxPromptChars)
			text, err := e.generate(ctx, prompt, e.cfg.DayMaxTokens)
			if err != nil {
				e.logFallback(planerrors.NewNarrativeFailedError(day.Date.Format("2006-01-02"), err))
				day.Narrative = FallbackDay(*day, tc)
				day.NarrativeSource = itinerary.SourceFallback
				atomic.AddInt64(&fallback, 1)
				return nil
			}
			day.Narrative = text
			day.NarrativeSource = itinerary.SourceGenerated
			atomic.AddInt64(&generated, 1)
			return nil
		})
	}
	_ = g.Wait()

	return Stats{Generated: int(generated), Fallback: int(fallback)}
}

// Observations returns the plan-level note and its source.
func (e *Enricher) Observations(ctx context.Context, tc TripContext) (string, string) {
	text, err := e.generate(ctx, ObservationsPrompt(tc, e.cfg.MaxPromptChars), e.cfg.ObsMaxTokens)
	if err != nil {
		e.logFallback(planerrors.NewNarrativeFailedError("observations", err))
		return FallbackObservations(tc), itinerary.SourceFallback
	}
	return text, itinerary.SourceGenerated
}

func (e *Enricher) logFallback(err error) {
	if errors.Is(err, ErrNoGenerator) {
		e.logger.Debug().Err(err).Msg("using fallback narrative")
		return
	}
	e.logger.Warn().Err(err).Msg("using fallback narrative")
}

func (e *Enricher) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if e.gen == nil {
		return "", ErrNoGenerator
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	// Buffered so a generator that ignores ctx does not leak the goroutine
	// past its own return.
	ch := make(chan result, 1)
	go func() {
		text, err := e.gen.Generate(callCtx, Request{Prompt: prompt, MaxTokens: maxTokens, Temperature: e.cfg.Temperature})
		ch <- result{text, err}
	}()

	select {
	case <-callCtx.Done():
		return "", callCtx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		if strings.TrimSpace(r.text) == "" {
			return "", ErrEmptyResponse
		}
		return strings.TrimSpace(r.text), nil
	}
}
