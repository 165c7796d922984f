// Package itinerary lays out a trip's calendar days and fills each day's
// morning, afternoon and evening slots from a destination catalog.
package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trip-planner/decision/costmodel"
)

// Activity is one entry in a day slot.
type Activity struct {
	Name     string             `json:"name"`
	Category costmodel.Category `json:"category"`
	Theme    string             `json:"theme,omitempty"`
	Notes    string             `json:"notes,omitempty"`
}

// Narrative sources.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
)

// DayPlan is one calendar day.
type DayPlan struct {
	Date      time.Time       `json:"date"`
	Morning   []Activity      `json:"morning"`
	Afternoon []Activity      `json:"afternoon"`
	Evening   []Activity      `json:"evening"`
	Cost      decimal.Decimal `json:"cost"`
	// Narrative is empty until enrichment.
	Narrative       string `json:"narrative"`
	NarrativeSource string `json:"narrative_source,omitempty"`
}

// Slot returns the activities of s.
func (d *DayPlan) Slot(s Slot) []Activity {
	switch s {
	case Morning:
		return d.Morning
	case Afternoon:
		return d.Afternoon
	default:
		return d.Evening
	}
}

func (d *DayPlan) appendTo(s Slot, a Activity) {
	switch s {
	case Morning:
		d.Morning = append(d.Morning, a)
	case Afternoon:
		d.Afternoon = append(d.Afternoon, a)
	default:
		d.Evening = append(d.Evening, a)
	}
}

// Input describes the effective trip.
type Input struct {
	Start          time.Time
	Days           int
	Themes         []string
	DailyCosts     []decimal.Decimal
	DestinationKey string
	Destination    string
}

// Itinerary is the builder's output.
type Itinerary struct {
	Days []DayPlan
	// UnmatchedThemes lists requested themes with no catalog attraction.
	UnmatchedThemes []string
}

const (
	ArrivalName   = "Arrival"
	DepartureName = "Departure"
)

// Builder is deterministic: the same input always yields the same days.
type Builder struct {
	catalog Catalog
}

func NewBuilder(catalog Catalog) *Builder {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Builder{catalog: catalog}
}

type slotRef struct {
	day  int
	slot Slot
}

// Build returns one DayPlan per day starting at in.Start. Day one's morning
// is reserved for arrival and, on trips of two days or more, the last
// evening for departure. On a single-day trip departure is appended to the
// evening after any themed activity. Themes are dealt round-robin over the
// free slots in calendar order.
func (b *Builder) Build(in Input) (*Itinerary, error) {
	if in.Days < 1 {
		return nil, fmt.Errorf("itinerary needs at least one day, got %d", in.Days)
	}
	if len(in.DailyCosts) != 0 && len(in.DailyCosts) != in.Days {
		return nil, fmt.Errorf("daily costs cover %d days, itinerary has %d", len(in.DailyCosts), in.Days)
	}

	start := time.Date(in.Start.Year(), in.Start.Month(), in.Start.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]DayPlan, in.Days)
	for i := range days {
		days[i] = DayPlan{
			Date:      start.AddDate(0, 0, i),
			Morning:   []Activity{},
			Afternoon: []Activity{},
			Evening:   []Activity{},
			Cost:      decimal.Zero,
		}
		if len(in.DailyCosts) == in.Days {
			days[i].Cost = in.DailyCosts[i]
		}
	}

	last := in.Days - 1
	days[0].appendTo(Morning, Activity{
		Name:     ArrivalName,
		Category: costmodel.CategoryTransport,
		Notes:    arrivalNote(in.Destination),
	})

	var free []slotRef
	for d := range days {
		for _, s := range slots {
			if d == 0 && s == Morning {
				continue
			}
			if d == last && last > 0 && s == Evening {
				continue
			}
			free = append(free, slotRef{day: d, slot: s})
		}
	}

	pick := newPicker(b.catalog.For(in.DestinationKey))
	themes := dedupeThemes(in.Themes)
	unmatched := make(map[string]bool)

	for i, ref := range free {
		var act Activity
		if len(themes) > 0 {
			theme := themes[i%len(themes)]
			var ok bool
			act, ok = pick.themed(theme, ref.slot)
			if !ok {
				unmatched[theme] = true
			}
		} else {
			act = pick.any(ref.slot)
		}
		days[ref.day].appendTo(ref.slot, act)
	}

	days[last].appendTo(Evening, Activity{
		Name:     DepartureName,
		Category: costmodel.CategoryTransport,
		Notes:    "return trip",
	})

	it := &Itinerary{Days: days, UnmatchedThemes: []string{}}
	for _, th := range themes {
		if unmatched[th] {
			it.UnmatchedThemes = append(it.UnmatchedThemes, th)
		}
	}
	return it, nil
}

func arrivalNote(dest string) string {
	if dest == "" {
		return "check-in"
	}
	return "arrive in " + dest + ", check-in"
}

func dedupeThemes(themes []string) []string {
	seen := make(map[string]bool, len(themes))
	out := make([]string, 0, len(themes))
	for _, th := range themes {
		t := strings.TrimSpace(th)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// picker hands out catalog entries, least used first, ties broken by
// catalog order.
type picker struct {
	pois []POI
	used []int
}

func newPicker(pois []POI) *picker {
	return &picker{pois: pois, used: make([]int, len(pois))}
}

func (p *picker) best(match func(POI) bool) (int, bool) {
	idx := -1
	for i, poi := range p.pois {
		if !match(poi) {
			continue
		}
		if idx < 0 || p.used[i] < p.used[idx] {
			idx = i
		}
	}
	return idx, idx >= 0
}

func (p *picker) take(i int, theme string) Activity {
	p.used[i]++
	poi := p.pois[i]
	notes := poi.District
	if poi.Indoor {
		notes += ", indoor"
	}
	if poi.PriceHint > 0 {
		notes += fmt.Sprintf(", about %.0f per person", poi.PriceHint)
	} else {
		notes += ", free entry"
	}
	return Activity{Name: poi.Name, Category: costmodel.CategoryActivity, Theme: theme, Notes: notes}
}

// themed prefers an attraction tagged with theme for this slot, then one
// tagged with theme for any slot. ok is false when the catalog has nothing
// for the theme and a generic placeholder is returned.
func (p *picker) themed(theme string, s Slot) (Activity, bool) {
	tag := CanonicalTheme(theme)
	if i, ok := p.best(func(poi POI) bool { return poi.Slot == s && poi.hasTag(tag) }); ok {
		return p.take(i, theme), true
	}
	if i, ok := p.best(func(poi POI) bool { return poi.hasTag(tag) }); ok {
		return p.take(i, theme), true
	}
	return Activity{
		Name:     fmt.Sprintf("Explore local %s", theme),
		Category: costmodel.CategoryActivity,
		Theme:    theme,
		Notes:    "no catalog match",
	}, false
}

func (p *picker) any(s Slot) Activity {
	if i, ok := p.best(func(poi POI) bool { return poi.Slot == s }); ok {
		return p.take(i, "")
	}
	return Activity{Name: "Free time", Category: costmodel.CategoryOther}
}
