// Package events picks the week's disruptive event. Selection is weighted
// random: each template carries a base weight, adjusted upward when the
// store's current metrics make that kind of trouble more likely (a disengaged
// team attracts people problems, a crowded store attracts trading ones).
package events

import "github.com/chrisf-bit/store-manager/internal/sim/metrics"

// Event categories.
const (
	CategoryPeople      = "people"
	CategoryTrading     = "trading"
	CategoryOperational = "operational"
	CategoryLeadership  = "leadership"
)

// KnownCategory reports whether c is a recognised event category.
func KnownCategory(c string) bool {
	switch c {
	case CategoryPeople, CategoryTrading, CategoryOperational, CategoryLeadership:
		return true
	}
	return false
}

// Template is one authored disruptive event. Immutable at runtime.
type Template struct {
	ID          string        `json:"id"`
	Category    string        `json:"category"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	BaseWeight  float64       `json:"base_weight"`
	Effects     metrics.Delta `json:"effects"`
}

// minWeight keeps every candidate selectable even after adjustment.
const minWeight = 0.1

// AdjustedWeight applies the metric-conditional multipliers for t's category.
// Multipliers compound independently; the result is floored at 0.1.
func AdjustedWeight(t Template, m metrics.Metrics) float64 {
	w := t.BaseWeight
	switch t.Category {
	case CategoryPeople:
		if m.EngagementScore < 60 {
			w *= 1.5
		}
		if m.AttritionRisk > 50 {
			w *= 1.3
		}
		if m.AbsenceRatePct > 5 {
			w *= 1.2
		}
	case CategoryOperational:
		if m.AvailabilityPct < 90 {
			w *= 1.4
		}
		if m.WastePct > 3.5 {
			w *= 1.3
		}
		if m.ComplianceScore < 65 {
			w *= 1.2
		}
	case CategoryTrading:
		if m.Footfall > 8000 {
			w *= 1.2
		}
		if m.CustomerSatisfaction < 65 {
			w *= 1.3
		}
	case CategoryLeadership:
		if m.ComplianceScore < 65 {
			w *= 1.5
		}
		if m.ComplaintsCount > 15 {
			w *= 1.3
		}
	}
	if w < minWeight {
		return minWeight
	}
	return w
}

// Select draws one event from the catalog. Events already used this run are
// excluded until the whole catalog is exhausted, after which repeats are
// allowed. Always returns a catalog member for catalogs of size >= 1.
func Select(catalog []Template, m metrics.Metrics, rng func() float64, usedIDs []string) Template {
	used := make(map[string]bool, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = true
	}

	candidates := make([]Template, 0, len(catalog))
	for _, t := range catalog {
		if !used[t.ID] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = catalog
	}

	weights := make([]float64, len(candidates))
	var total float64
	for i, t := range candidates {
		weights[i] = AdjustedWeight(t, m)
		total += weights[i]
	}

	// Linear scan; the last candidate absorbs any floating-point shortfall.
	r := rng() * total
	for i, t := range candidates {
		r -= weights[i]
		if r <= 0 {
			return t
		}
	}
	return candidates[len(candidates)-1]
}
