package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chrisf-bit/store-manager/internal/sim/events"
	"github.com/chrisf-bit/store-manager/internal/sim/scorecard"
	"github.com/chrisf-bit/store-manager/internal/store"
)

// Trend directions for report metrics.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Report is the end-of-run summary.
type Report struct {
	Run             store.Run           `json:"run"`
	Grade           string              `json:"grade"`
	OverallScore    int                 `json:"overallScore"`
	Scorecard       []ScorecardCategory `json:"scorecard"`
	Strengths       []string            `json:"strengths"`
	Risks           []string            `json:"risks"`
	Recommendations []string            `json:"recommendations"`
	Rounds          []ReportRound       `json:"rounds"`
}

// ScorecardCategory groups the report metrics for one pillar.
type ScorecardCategory struct {
	Name    string            `json:"name"`
	Score   int               `json:"score"`
	Metrics []ScorecardMetric `json:"metrics"`
}

// ScorecardMetric is one line on the scorecard: a label, a display value and
// a trend over the run. Value is a formatted string for metrics with units
// and a bare number otherwise.
type ScorecardMetric struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Trend string `json:"trend"`
}

// ReportRound replays one round of the run's history.
type ReportRound struct {
	RoundNumber int                       `json:"roundNumber"`
	State       store.RoundState          `json:"state"`
	Decisions   []store.DecisionSelection `json:"decisions"`
	Event       *ReportEvent              `json:"event,omitempty"`
}

// ReportEvent is an event instance joined with its catalog template.
type ReportEvent struct {
	store.EventInstance
	Template events.Template `json:"eventTemplate"`
}

// Report assembles the end-of-run report from the run's persisted history.
// The scorecard reflects the metrics after the run's latest round, so it can
// be requested before completion for an interim view.
func (s *Service) Report(ctx context.Context, runID string) (Report, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	states, err := s.repo.ListRoundStates(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	sels, err := s.repo.ListDecisionSelections(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	instances, err := s.repo.ListEventInstances(ctx, runID)
	if err != nil {
		return Report{}, err
	}

	var final *store.RoundState
	for i := range states {
		if states[i].RoundNumber == run.CurrentRound {
			final = &states[i]
			break
		}
	}
	if final == nil {
		return Report{}, fmt.Errorf("run %s: no state for round %d", runID, run.CurrentRound)
	}
	m := final.Metrics
	card := scorecard.Calculate(m)

	trend := func(field string) string { return trendOf(states, field) }
	inverse := func(field string) string { return inverseTrend(states, field) }

	categories := []ScorecardCategory{
		{
			Name:  "Financial",
			Score: card.Financial,
			Metrics: []ScorecardMetric{
				{Label: "Revenue", Value: "£" + groupThousands(m.Revenue), Trend: trend("revenue")},
				{Label: "Gross Margin", Value: fmt.Sprintf("%v%%", m.GrossMarginPct), Trend: trend("grossMarginPct")},
				{Label: "Waste", Value: fmt.Sprintf("%v%%", m.WastePct), Trend: inverse("wastePct")},
				{Label: "Net Profit", Value: "£" + groupThousands(m.NetProfit), Trend: trend("netProfit")},
			},
		},
		{
			Name:  "Customer",
			Score: card.Customer,
			Metrics: []ScorecardMetric{
				{Label: "Satisfaction", Value: m.CustomerSatisfaction, Trend: trend("customerSatisfaction")},
				{Label: "Loyalty Index", Value: m.LoyaltyIndex, Trend: trend("loyaltyIndex")},
				{Label: "Complaints", Value: m.ComplaintsCount, Trend: inverse("complaintsCount")},
			},
		},
		{
			Name:  "People",
			Score: card.People,
			Metrics: []ScorecardMetric{
				{Label: "Engagement", Value: m.EngagementScore, Trend: trend("engagementScore")},
				{Label: "Absence Rate", Value: fmt.Sprintf("%v%%", m.AbsenceRatePct), Trend: inverse("absenceRatePct")},
				{Label: "Attrition Risk", Value: m.AttritionRisk, Trend: inverse("attritionRisk")},
			},
		},
		{
			Name:  "Operations",
			Score: card.Operations,
			Metrics: []ScorecardMetric{
				{Label: "Availability", Value: fmt.Sprintf("%v%%", m.AvailabilityPct), Trend: trend("availabilityPct")},
				{Label: "Queue Time", Value: fmt.Sprintf("%v mins", m.QueueTimeMins), Trend: inverse("queueTimeMins")},
				{Label: "Compliance", Value: m.ComplianceScore, Trend: trend("complianceScore")},
			},
		},
	}

	rounds := make([]ReportRound, 0, len(states))
	for _, rs := range states {
		if rs.RoundNumber == 0 {
			continue
		}
		rr := ReportRound{RoundNumber: rs.RoundNumber, State: rs}
		for _, sel := range sels {
			if sel.RoundNumber == rs.RoundNumber {
				rr.Decisions = append(rr.Decisions, sel)
			}
		}
		for _, inst := range instances {
			if inst.RoundNumber == rs.RoundNumber {
				ev := ReportEvent{EventInstance: inst}
				if tmpl, ok := s.cat.Events.ByID[inst.TemplateID]; ok {
					ev.Template = tmpl
				}
				rr.Event = &ev
				break
			}
		}
		rounds = append(rounds, rr)
	}

	return Report{
		Run:             run,
		Grade:           scorecard.Grade(card.Overall),
		OverallScore:    card.Overall,
		Scorecard:       categories,
		Strengths:       scorecard.Strengths(m),
		Risks:           scorecard.Risks(m),
		Recommendations: scorecard.Recommendations(m),
		Rounds:          rounds,
	}, nil
}

// trendOf compares a field's first and last recorded values. Moves smaller
// than 0.5 read as flat.
func trendOf(states []store.RoundState, field string) string {
	if len(states) < 2 {
		return TrendFlat
	}
	first, _ := states[0].Metrics.Get(field)
	last, _ := states[len(states)-1].Metrics.Get(field)
	diff := last - first
	if diff < 0.5 && diff > -0.5 {
		return TrendFlat
	}
	if diff > 0 {
		return TrendUp
	}
	return TrendDown
}

// inverseTrend flips the direction for metrics where down is good.
func inverseTrend(states []store.RoundState, field string) string {
	switch trendOf(states, field) {
	case TrendUp:
		return TrendDown
	case TrendDown:
		return TrendUp
	}
	return TrendFlat
}

// groupThousands renders a whole-valued amount with comma separators.
func groupThousands(v float64) string {
	n := int64(v)
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
