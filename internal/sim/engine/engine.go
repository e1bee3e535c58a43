// Package engine resolves one round of the simulation: it folds decision,
// scenario and event effects into the store's metrics, injects a little
// randomness, recomputes the derived figures (revenue model, profit
// waterfall, satisfaction and loyalty feedback, absence and attrition drift)
// and clamps everything back to its canonical range.
//
// ResolveRound is total: any metrics record and any delta maps produce a
// result. Unknown decision keys degrade to a no-op; the HTTP layer rejects
// them before they reach here.
package engine

import (
	"sort"

	"github.com/chrisf-bit/store-manager/internal/sim/decisions"
	"github.com/chrisf-bit/store-manager/internal/sim/effects"
	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
)

// Resolution is the outcome of one round.
type Resolution struct {
	// NewMetrics is the clamped post-round state.
	NewMetrics metrics.Metrics
	// Deltas holds per-field display changes (two decimals, tiny moves omitted).
	Deltas metrics.Delta
	// EventEffects echoes the combined event+scenario effects that were applied,
	// for persistence as the round's resolved event record.
	EventEffects metrics.Delta
}

const (
	// noiseScale bounds the injected randomness at ±2% of a delta's magnitude.
	noiseScale = 0.04

	footfallFloor   = 500
	basketSizeFloor = 10
	conversionMin   = 0.30
	conversionMax   = 0.95
)

// ResolveRound computes the next metrics state. eventEffects must already
// combine the selected event's fixed effects with any scenario-option
// effects; rng is the round's seeded stream.
func ResolveRound(current metrics.Metrics, set decisions.Set, eventEffects metrics.Delta, rng func() float64) Resolution {
	parts := append(decisions.Impacts(set, current), eventEffects)
	all := effects.Accumulate(parts...)

	// Noise: up to ±2% of each delta's magnitude (of 1 for a zero delta, so
	// even perfectly cancelled effects wobble). Keys are visited in sorted
	// order so a pinned rng stream always maps to the same fields.
	fields := make([]string, 0, len(all))
	for f := range all {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		mag := all[f]
		if mag < 0 {
			mag = -mag
		}
		if mag == 0 {
			mag = 1
		}
		all[f] += (rng() - 0.5) * noiseScale * mag
	}

	raw := metrics.Apply(current, all)

	// Revenue is derived from its drivers, never from an accumulated delta.
	// Drivers are settled to their canonical precision first so the identity
	// revenue == round(footfall * conversion * basketSize) holds exactly on
	// the persisted values.
	footfall := raw.Footfall
	if footfall < footfallFloor {
		footfall = footfallFloor
	}
	footfall = metrics.RoundTo(footfall, 0)
	conversion := metrics.RoundTo(metrics.ClampValue(raw.Conversion, conversionMin, conversionMax), 3)
	basketSize := raw.BasketSize
	if basketSize < basketSizeFloor {
		basketSize = basketSizeFloor
	}
	basketSize = metrics.RoundTo(basketSize, 2)
	revenue := metrics.RoundTo(footfall*conversion*basketSize, 0)
	raw.Footfall = footfall
	raw.Conversion = conversion
	raw.BasketSize = basketSize
	raw.Revenue = revenue

	// Profit waterfall off the derived revenue.
	grossProfit := revenue * raw.GrossMarginPct / 100
	labourCost := revenue * raw.LabourCostPct / 100
	wasteCost := revenue * raw.WastePct / 100
	shrinkCost := revenue * raw.ShrinkPct / 100
	raw.NetProfit = metrics.RoundTo(grossProfit-labourCost-wasteCost-shrinkCost, 0)

	// Second-order satisfaction feedback from this round's service movements,
	// dampened so direct effects still dominate.
	satDelta := (raw.AvailabilityPct-current.AvailabilityPct)*0.3 +
		(current.QueueTimeMins-raw.QueueTimeMins)*1.5 +
		(current.ComplaintsCount-raw.ComplaintsCount)*0.3 +
		(raw.EngagementScore-current.EngagementScore)*0.2
	raw.CustomerSatisfaction += satDelta * 0.3

	// Loyalty follows the satisfaction trend.
	raw.LoyaltyIndex += (raw.CustomerSatisfaction - current.CustomerSatisfaction) * 0.4

	// Absence drifts with engagement.
	if raw.EngagementScore < 55 {
		raw.AbsenceRatePct += 0.3
	} else if raw.EngagementScore > 75 {
		raw.AbsenceRatePct -= 0.2
	}

	// Attrition pressure: disengagement and understaffing stack.
	if raw.EngagementScore < 55 {
		raw.AttritionRisk += 3
	}
	if raw.LabourCostPct < 15 {
		raw.AttritionRisk += 2
	}

	next := metrics.Clamp(raw)

	return Resolution{
		NewMetrics:   next,
		Deltas:       metrics.Diff(next, current),
		EventEffects: eventEffects.Clone(),
	}
}
