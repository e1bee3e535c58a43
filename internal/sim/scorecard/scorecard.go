// Package scorecard turns a final metrics state into the end-of-run report:
// four pillar scores, an overall readiness grade, and three strengths, risks
// and recommendations drawn from fixed editorial pools.
package scorecard

import (
	"math"
	"sort"

	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
)

// Scorecard holds the pillar scores, each on a 0..100 scale.
type Scorecard struct {
	Financial  int `json:"financial"`
	Customer   int `json:"customer"`
	People     int `json:"people"`
	Operations int `json:"operations"`
	Overall    int `json:"overall"`
}

// Readiness grades, from lowest to highest band.
const (
	GradeDeveloping     = "Developing"
	GradeReadySoon      = "Ready Soon"
	GradeReady          = "Ready"
	GradeHighPerforming = "High Performing"
)

// Calculate scores the final metrics. Each pillar blends its metrics into a
// 0..100 band; overall is the plain average of the four.
func Calculate(m metrics.Metrics) Scorecard {
	financial := band(
		(m.GrossMarginPct/35)*25 +
			(math.Max(0, m.NetProfit)/25000)*25 +
			((5-m.WastePct)/5)*25 +
			((3-m.ShrinkPct)/3)*25)

	customer := band(
		m.CustomerSatisfaction*0.4 +
			m.LoyaltyIndex*0.3 +
			math.Max(0, (20-m.ComplaintsCount)/20)*30)

	people := band(
		m.EngagementScore*0.4 +
			((8-m.AbsenceRatePct)/8)*30 +
			((100-m.AttritionRisk)/100)*30)

	operations := band(
		(m.AvailabilityPct/100)*30 +
			math.Max(0, (8-m.QueueTimeMins)/8)*30 +
			m.ComplianceScore*0.4)

	return Scorecard{
		Financial:  round(financial),
		Customer:   round(customer),
		People:     round(people),
		Operations: round(operations),
		Overall:    round((financial + customer + people + operations) / 4),
	}
}

// Grade maps an overall score to its readiness band.
func Grade(overall int) string {
	switch {
	case overall >= 80:
		return GradeHighPerforming
	case overall >= 65:
		return GradeReady
	case overall >= 50:
		return GradeReadySoon
	}
	return GradeDeveloping
}

// Strengths returns exactly three strength lines, padding with neutral
// defaults when fewer metrics qualify.
func Strengths(m metrics.Metrics) []string {
	var out []string
	if m.GrossMarginPct > 30 {
		out = append(out, "Strong margin management — pricing discipline is delivering results.")
	}
	if m.CustomerSatisfaction > 78 {
		out = append(out, "Customer satisfaction is high — your store is well-regarded locally.")
	}
	if m.EngagementScore > 75 {
		out = append(out, "Team engagement is excellent — colleagues are motivated and productive.")
	}
	if m.AvailabilityPct > 96 {
		out = append(out, "On-shelf availability is outstanding — customers find what they need.")
	}
	if m.ComplianceScore > 85 {
		out = append(out, "Compliance standards are strong — the store is well-controlled.")
	}
	if m.LoyaltyIndex > 75 {
		out = append(out, "Customer loyalty is building — repeat visits and basket growth are evident.")
	}
	if m.WastePct < 2.0 {
		out = append(out, "Waste is well managed — minimal product loss.")
	}
	if m.QueueTimeMins < 3 {
		out = append(out, "Queue times are fast — customers are getting through quickly.")
	}
	if m.NetProfit > 18000 {
		out = append(out, "Net profit is strong — the P&L is healthy.")
	}
	if m.AttritionRisk < 25 {
		out = append(out, "Attrition risk is low — your team is stable.")
	}
	return padTo3(out, []string{
		"The store is operational and trading.",
		"Basic standards are being maintained.",
		"The team is showing up and doing the work.",
	})
}

// Risks returns exactly three risk lines, padded the same way.
func Risks(m metrics.Metrics) []string {
	var out []string
	if m.EngagementScore < 55 {
		out = append(out, "Team engagement is critically low — risk of resignations and poor service.")
	}
	if m.AttritionRisk > 55 {
		out = append(out, "Attrition risk is high — you could lose key colleagues soon.")
	}
	if m.ComplianceScore < 60 {
		out = append(out, "Compliance is weak — the store is vulnerable to audit failures and incidents.")
	}
	if m.CustomerSatisfaction < 60 {
		out = append(out, "Customer satisfaction is poor — complaints are likely to escalate.")
	}
	if m.WastePct > 4 {
		out = append(out, "Waste levels are high — margin is being eroded by product loss.")
	}
	if m.ShrinkPct > 2.5 {
		out = append(out, "Shrink is above target — investigate stock loss urgently.")
	}
	if m.QueueTimeMins > 6 {
		out = append(out, "Queue times are unacceptable — customers are abandoning baskets.")
	}
	if m.AbsenceRatePct > 6 {
		out = append(out, "Absence is high — the store is frequently understaffed.")
	}
	if m.AvailabilityPct < 88 {
		out = append(out, "Availability is poor — customers can't find products on shelf.")
	}
	if m.NetProfit < 5000 {
		out = append(out, "Profitability is under pressure — the P&L needs attention.")
	}
	return padTo3(out, []string{
		"Monitor team workload — sustained pressure can erode performance.",
		"Keep an eye on local competitor activity.",
		"Ensure maintenance schedules are up to date to prevent breakdowns.",
	})
}

// Recommendations ranks six candidate focus areas by a badness score and
// returns the three worst. The sort is stable so equal scores keep the
// candidate order.
func Recommendations(m metrics.Metrics) []string {
	issues := []struct {
		score float64
		rec   string
	}{
		{m.EngagementScore, "Invest in colleague wellbeing and listen to your team. Engagement drives everything else."},
		{m.CustomerSatisfaction, "Focus on the customer experience — availability, service speed, and complaint resolution."},
		{m.ComplianceScore, "Dedicate time to compliance routines before they become a liability."},
		{100 - m.WastePct*15, "Tighten waste controls — better ordering, rotation, and markdown management."},
		{100 - m.QueueTimeMins*10, "Improve checkout speed — deploy staff to tills during peak hours."},
		{100 - m.AttritionRisk, "Address retention risk — have honest conversations with your team about workload and development."},
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].score < issues[j].score })

	out := make([]string, 0, 3)
	for _, issue := range issues[:3] {
		out = append(out, issue.rec)
	}
	return out
}

func band(v float64) float64 {
	return metrics.ClampValue(v, 0, 100)
}

func round(v float64) int {
	return int(metrics.RoundTo(v, 0))
}

func padTo3(out, defaults []string) []string {
	for len(out) < 3 {
		out = append(out, defaults[len(out)])
	}
	return out[:3]
}
