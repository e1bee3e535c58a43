// Package metrics defines the numeric state vector a store carries between
// rounds, plus the canonical precision/range rules applied after resolution.
package metrics

import "math"

// Metrics is the full per-round state of a store. Field names (via the JSON
// tags) are the canonical keys used in delta maps and persisted state.
type Metrics struct {
	// Financial.
	Revenue        float64 `json:"revenue"`
	GrossMarginPct float64 `json:"grossMarginPct"`
	LabourCostPct  float64 `json:"labourCostPct"`
	WastePct       float64 `json:"wastePct"`
	ShrinkPct      float64 `json:"shrinkPct"`
	NetProfit      float64 `json:"netProfit"`

	// Operations.
	AvailabilityPct float64 `json:"availabilityPct"`
	QueueTimeMins   float64 `json:"queueTimeMins"`
	ComplianceScore float64 `json:"complianceScore"`

	// People.
	EngagementScore float64 `json:"engagementScore"`
	AbsenceRatePct  float64 `json:"absenceRatePct"`
	AttritionRisk   float64 `json:"attritionRisk"`

	// Customer.
	CustomerSatisfaction float64 `json:"customerSatisfaction"`
	ComplaintsCount      float64 `json:"complaintsCount"`
	LoyaltyIndex         float64 `json:"loyaltyIndex"`

	// Revenue drivers.
	Footfall   float64 `json:"footfall"`
	Conversion float64 `json:"conversion"`
	BasketSize float64 `json:"basketSize"`
}

// Delta is a partial mapping from metric field name to a signed change.
// Fields absent from the map contribute zero.
type Delta map[string]float64

// Clone returns an independent copy of d.
func (d Delta) Clone() Delta {
	out := make(Delta, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type accessor struct {
	get func(*Metrics) float64
	set func(*Metrics, float64)
}

var fieldAccessors = map[string]accessor{
	"revenue":              {func(m *Metrics) float64 { return m.Revenue }, func(m *Metrics, v float64) { m.Revenue = v }},
	"grossMarginPct":       {func(m *Metrics) float64 { return m.GrossMarginPct }, func(m *Metrics, v float64) { m.GrossMarginPct = v }},
	"labourCostPct":        {func(m *Metrics) float64 { return m.LabourCostPct }, func(m *Metrics, v float64) { m.LabourCostPct = v }},
	"wastePct":             {func(m *Metrics) float64 { return m.WastePct }, func(m *Metrics, v float64) { m.WastePct = v }},
	"shrinkPct":            {func(m *Metrics) float64 { return m.ShrinkPct }, func(m *Metrics, v float64) { m.ShrinkPct = v }},
	"netProfit":            {func(m *Metrics) float64 { return m.NetProfit }, func(m *Metrics, v float64) { m.NetProfit = v }},
	"availabilityPct":      {func(m *Metrics) float64 { return m.AvailabilityPct }, func(m *Metrics, v float64) { m.AvailabilityPct = v }},
	"queueTimeMins":        {func(m *Metrics) float64 { return m.QueueTimeMins }, func(m *Metrics, v float64) { m.QueueTimeMins = v }},
	"complianceScore":      {func(m *Metrics) float64 { return m.ComplianceScore }, func(m *Metrics, v float64) { m.ComplianceScore = v }},
	"engagementScore":      {func(m *Metrics) float64 { return m.EngagementScore }, func(m *Metrics, v float64) { m.EngagementScore = v }},
	"absenceRatePct":       {func(m *Metrics) float64 { return m.AbsenceRatePct }, func(m *Metrics, v float64) { m.AbsenceRatePct = v }},
	"attritionRisk":        {func(m *Metrics) float64 { return m.AttritionRisk }, func(m *Metrics, v float64) { m.AttritionRisk = v }},
	"customerSatisfaction": {func(m *Metrics) float64 { return m.CustomerSatisfaction }, func(m *Metrics, v float64) { m.CustomerSatisfaction = v }},
	"complaintsCount":      {func(m *Metrics) float64 { return m.ComplaintsCount }, func(m *Metrics, v float64) { m.ComplaintsCount = v }},
	"loyaltyIndex":         {func(m *Metrics) float64 { return m.LoyaltyIndex }, func(m *Metrics, v float64) { m.LoyaltyIndex = v }},
	"footfall":             {func(m *Metrics) float64 { return m.Footfall }, func(m *Metrics, v float64) { m.Footfall = v }},
	"conversion":           {func(m *Metrics) float64 { return m.Conversion }, func(m *Metrics, v float64) { m.Conversion = v }},
	"basketSize":           {func(m *Metrics) float64 { return m.BasketSize }, func(m *Metrics, v float64) { m.BasketSize = v }},
}

// FieldNames lists every metric field in a stable order.
var FieldNames = []string{
	"revenue", "grossMarginPct", "labourCostPct", "wastePct", "shrinkPct", "netProfit",
	"availabilityPct", "queueTimeMins", "complianceScore",
	"engagementScore", "absenceRatePct", "attritionRisk",
	"customerSatisfaction", "complaintsCount", "loyaltyIndex",
	"footfall", "conversion", "basketSize",
}

// IsField reports whether name is a known metric field.
func IsField(name string) bool {
	_, ok := fieldAccessors[name]
	return ok
}

// Get returns the value of the named field, or false for unknown names.
func (m Metrics) Get(name string) (float64, bool) {
	a, ok := fieldAccessors[name]
	if !ok {
		return 0, false
	}
	return a.get(&m), true
}

// Apply returns a copy of m with every known-field delta added. Unknown keys
// are ignored; the result is unclamped.
func Apply(m Metrics, d Delta) Metrics {
	out := m
	for name, dv := range d {
		a, ok := fieldAccessors[name]
		if !ok {
			continue
		}
		a.set(&out, a.get(&out)+dv)
	}
	return out
}

// Diff returns the per-field change from prev to next, rounded to two decimal
// places. Fields whose change is within ±0.01 are omitted.
func Diff(next, prev Metrics) Delta {
	out := Delta{}
	for _, name := range FieldNames {
		a := fieldAccessors[name]
		diff := a.get(&next) - a.get(&prev)
		if math.Abs(diff) > 0.01 {
			out[name] = RoundTo(diff, 2)
		}
	}
	return out
}

// clampRule is the canonical precision and range for one field. decimals is
// the rounding precision; fields without an explicit range carry hasRange=false.
type clampRule struct {
	decimals int
	min, max float64
	hasRange bool
}

var clampRules = map[string]clampRule{
	"revenue":              {decimals: 0},
	"grossMarginPct":       {decimals: 1, min: 15, max: 45, hasRange: true},
	"labourCostPct":        {decimals: 1, min: 10, max: 30, hasRange: true},
	"wastePct":             {decimals: 1, min: 0.5, max: 8, hasRange: true},
	"shrinkPct":            {decimals: 1, min: 0.3, max: 5, hasRange: true},
	"netProfit":            {decimals: 0},
	"availabilityPct":      {decimals: 1, min: 70, max: 99.5, hasRange: true},
	"queueTimeMins":        {decimals: 1, min: 0.5, max: 12, hasRange: true},
	"complianceScore":      {decimals: 0, min: 30, max: 100, hasRange: true},
	"engagementScore":      {decimals: 0, min: 20, max: 100, hasRange: true},
	"absenceRatePct":       {decimals: 1, min: 0.5, max: 12, hasRange: true},
	"attritionRisk":        {decimals: 0, min: 5, max: 95, hasRange: true},
	"customerSatisfaction": {decimals: 0, min: 25, max: 100, hasRange: true},
	"complaintsCount":      {decimals: 0, min: 0, max: 50, hasRange: true},
	"loyaltyIndex":         {decimals: 0, min: 20, max: 100, hasRange: true},
	"footfall":             {decimals: 0},
	"conversion":           {decimals: 3, min: 0.30, max: 0.95, hasRange: true},
	"basketSize":           {decimals: 2},
}

// Range returns the hard [min,max] for name, or ok=false when the field has
// no explicit range (revenue, netProfit, footfall, basketSize).
func Range(name string) (min, max float64, ok bool) {
	r, found := clampRules[name]
	if !found || !r.hasRange {
		return 0, 0, false
	}
	return r.min, r.max, true
}

// Clamp rounds every field to its canonical precision and clamps the ranged
// fields. Rounding happens before clamping, so a 99.46 availability lands on
// the 99.5 ceiling rather than above it.
func Clamp(m Metrics) Metrics {
	out := m
	for name, rule := range clampRules {
		a := fieldAccessors[name]
		v := RoundTo(a.get(&out), rule.decimals)
		if rule.hasRange {
			v = ClampValue(v, rule.min, rule.max)
		}
		a.set(&out, v)
	}
	return out
}

// ClampValue limits v to [min,max].
func ClampValue(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// RoundTo rounds half-up to the given number of decimal places.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Floor(v*p+0.5) / p
}
