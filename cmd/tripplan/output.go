package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"trip-planner/api"
	"trip-planner/decision/itinerary"
	"trip-planner/decision/planner"
)

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

func outputJSON(w io.Writer, res *planner.PlanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewPlanResponse(res))
}

func outputTable(w io.Writer, res *planner.PlanResult) error {
	line := "╠══════════════════════════════════════════════════════════════╣"
	row := func(label, value string) {
		fmt.Fprintf(w, "║  %-22s %-37s ║\n", label, truncate(value, 37))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                       TRIP ESTIMATE                          ║")
	fmt.Fprintln(w, line)
	row("Route:", res.Origin.Label+" → "+res.Destination.Label)
	row("Period:", periodString(res))
	row("Travelers:", fmt.Sprintf("%d (%s)", res.Travelers, res.Profile))
	row("Total:", res.Currency+" "+res.Total.StringFixed(2))
	row("Baseline:", res.Currency+" "+res.BaselineTotal.StringFixed(2))
	row("Savings:", res.Currency+" "+res.Savings.StringFixed(2))
	if res.Ceiling != nil {
		row("Ceiling:", res.Currency+" "+res.Ceiling.StringFixed(2))
	}
	row("Status:", string(res.AdaptationStatus))
	row("Transport:", fmt.Sprintf("%s, %.1f h in transit", res.Mode, res.TransitHours))
	row("Climate risk:", res.ClimateRisk.Label)
	row("CO2e:", fmt.Sprintf("%.1f kg", res.CarbonKgCO2e))
	fmt.Fprintln(w, line)

	fmt.Fprintln(w, "║  COST ITEMS                                                  ║")
	fmt.Fprintln(w, line)
	for _, it := range res.Items {
		fmt.Fprintf(w, "║  %-40s  %-17s ║\n", truncate(it.Description, 40), it.Amount.StringFixed(2))
	}

	if len(res.Adaptations) > 0 {
		fmt.Fprintln(w, line)
		fmt.Fprintln(w, "║  ADJUSTMENTS                                                 ║")
		fmt.Fprintln(w, line)
		for _, a := range res.Adaptations {
			desc := fmt.Sprintf("%s %s: %s → %s", a.Strategy, a.Parameter, a.From, a.To)
			fmt.Fprintf(w, "║  %-40s  %-17s ║\n", truncate(desc, 40), a.CostAfter.StringFixed(2))
		}
	}

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "║  ITINERARY                                                   ║")
	fmt.Fprintln(w, line)
	for _, d := range res.Days {
		fmt.Fprintf(w, "║  %-40s  %-17s ║\n", d.Date.Format("Mon 2006-01-02"), d.Cost.StringFixed(2))
		for _, slot := range [][]string{names(d.Morning), names(d.Afternoon), names(d.Evening)} {
			if len(slot) > 0 {
				fmt.Fprintf(w, "║    %-57s ║\n", truncate(strings.Join(slot, ", "), 57))
			}
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, line)
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "║  • %-57s ║\n", truncate(s, 57))
		}
	}
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════════════════╝")

	if res.Observations != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.Observations)
	}
	return nil
}

func outputMarkdown(w io.Writer, res *planner.PlanResult) error {
	fmt.Fprintf(w, "## %s → %s\n\n", res.Origin.Label, res.Destination.Label)
	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|--------|-------|")
	fmt.Fprintf(w, "| **Period** | %s |\n", periodString(res))
	fmt.Fprintf(w, "| **Travelers** | %d |\n", res.Travelers)
	fmt.Fprintf(w, "| **Profile** | %s |\n", res.Profile)
	fmt.Fprintf(w, "| **Total** | %s %s |\n", res.Currency, res.Total.StringFixed(2))
	fmt.Fprintf(w, "| **Baseline** | %s %s |\n", res.Currency, res.BaselineTotal.StringFixed(2))
	if res.Ceiling != nil {
		fmt.Fprintf(w, "| **Ceiling** | %s %s |\n", res.Currency, res.Ceiling.StringFixed(2))
	}
	fmt.Fprintf(w, "| **Status** | %s |\n", res.AdaptationStatus)
	if res.FlightTime != "" {
		fmt.Fprintf(w, "| **Flight time** | %s |\n", res.FlightTime)
	}
	fmt.Fprintf(w, "| **Climate risk** | %s |\n", res.ClimateRisk.Label)
	fmt.Fprintf(w, "| **CO2e** | %.1f kg |\n", res.CarbonKgCO2e)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "### Cost Breakdown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Item | Qty | Unit | Amount |")
	fmt.Fprintln(w, "|------|-----|------|--------|")
	for _, it := range res.Items {
		fmt.Fprintf(w, "| %s | %d | %s | %s |\n", it.Description, it.Quantity, it.UnitPrice.StringFixed(2), it.Amount.StringFixed(2))
	}

	if len(res.Adaptations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Adjustments")
		fmt.Fprintln(w)
		for _, a := range res.Adaptations {
			fmt.Fprintf(w, "- **%s** %s: %s → %s (%s → %s)\n",
				a.Strategy, a.Parameter, a.From, a.To, a.CostBefore.StringFixed(2), a.CostAfter.StringFixed(2))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "### Itinerary")
	for _, d := range res.Days {
		fmt.Fprintf(w, "\n**%s** (%s %s)\n\n", d.Date.Format("Mon 2006-01-02"), res.Currency, d.Cost.StringFixed(2))
		fmt.Fprintf(w, "- Morning: %s\n", strings.Join(names(d.Morning), ", "))
		fmt.Fprintf(w, "- Afternoon: %s\n", strings.Join(names(d.Afternoon), ", "))
		fmt.Fprintf(w, "- Evening: %s\n", strings.Join(names(d.Evening), ", "))
		if d.Narrative != "" {
			fmt.Fprintf(w, "\n%s\n", d.Narrative)
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Suggestions")
		fmt.Fprintln(w)
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "- %s\n", s)
		}
	}
	if res.Observations != "" {
		fmt.Fprintf(w, "\n> %s\n", res.Observations)
	}
	return nil
}

func periodString(res *planner.PlanResult) string {
	s := res.EffectiveStart.Format("2006-01-02") + " to " + res.EffectiveEnd.Format("2006-01-02")
	if res.PeriodAdjusted() {
		s += " (requested " + res.RequestedEnd.Format("2006-01-02") + ")"
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func names(acts []itinerary.Activity) []string {
	out := make([]string, len(acts))
	for i, a := range acts {
		out[i] = a.Name
	}
	return out
}
