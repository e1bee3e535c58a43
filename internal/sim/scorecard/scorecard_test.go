package scorecard

import (
	"strings"
	"testing"

	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
)

func TestCalculateMediumBaseline(t *testing.T) {
	sc := Calculate(metrics.Baseline(metrics.SizeMedium))

	if sc.Financial != 58 {
		t.Fatalf("financial = %d, want 58", sc.Financial)
	}
	if sc.Customer != 60 {
		t.Fatalf("customer = %d, want 60", sc.Customer)
	}
	if sc.People != 63 {
		t.Fatalf("people = %d, want 63", sc.People)
	}
	if sc.Operations != 73 {
		t.Fatalf("operations = %d, want 73", sc.Operations)
	}
	// Overall averages the unrounded pillars, so it is not simply the mean
	// of the four integers above.
	if sc.Overall != 64 {
		t.Fatalf("overall = %d, want 64", sc.Overall)
	}
}

func TestCalculateBands(t *testing.T) {
	var m metrics.Metrics
	m.NetProfit = -50000
	m.WastePct = 8
	m.ShrinkPct = 5
	m.QueueTimeMins = 12
	m.AttritionRisk = 95
	m.AbsenceRatePct = 12
	sc := Calculate(m)
	if sc.Financial != 0 {
		t.Fatalf("financial should floor at 0, got %d", sc.Financial)
	}
	if sc.Customer != 30 {
		t.Fatalf("customer = %d, want 30 (complaints term only)", sc.Customer)
	}

	m = metrics.Baseline(metrics.SizeMedium)
	m.GrossMarginPct = 45
	m.NetProfit = 100000
	m.WastePct = 0.5
	m.ShrinkPct = 0.3
	if got := Calculate(m).Financial; got != 100 {
		t.Fatalf("financial should cap at 100, got %d", got)
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		overall int
		want    string
	}{
		{0, GradeDeveloping},
		{49, GradeDeveloping},
		{50, GradeReadySoon},
		{64, GradeReadySoon},
		{65, GradeReady},
		{79, GradeReady},
		{80, GradeHighPerforming},
		{100, GradeHighPerforming},
	}
	for _, tc := range cases {
		if got := Grade(tc.overall); got != tc.want {
			t.Fatalf("Grade(%d) = %q, want %q", tc.overall, got, tc.want)
		}
	}
}

func TestStrengthsPadsToThree(t *testing.T) {
	// The medium baseline trips none of the strength thresholds.
	got := Strengths(metrics.Baseline(metrics.SizeMedium))
	want := []string{
		"The store is operational and trading.",
		"Basic standards are being maintained.",
		"The team is showing up and doing the work.",
	}
	if len(got) != 3 {
		t.Fatalf("want 3 strengths, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("strength[%d] = %q, want default %q", i, got[i], want[i])
		}
	}
}

func TestStrengthsPicksQualifying(t *testing.T) {
	m := metrics.Baseline(metrics.SizeMedium)
	m.GrossMarginPct = 32
	m.CustomerSatisfaction = 80
	m.EngagementScore = 78
	m.NetProfit = 20000

	got := Strengths(m)
	if len(got) != 3 {
		t.Fatalf("want 3 strengths, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "Strong margin management") {
		t.Fatalf("strength[0] = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Customer satisfaction is high") {
		t.Fatalf("strength[1] = %q", got[1])
	}
	// Net profit qualified too but only the first three survive.
	if !strings.HasPrefix(got[2], "Team engagement is excellent") {
		t.Fatalf("strength[2] = %q", got[2])
	}
}

func TestRisksFlagsTroubledStore(t *testing.T) {
	m := metrics.Baseline(metrics.SizeMedium)
	m.EngagementScore = 48
	m.AttritionRisk = 60
	m.ComplianceScore = 55
	m.NetProfit = 2000

	got := Risks(m)
	if !strings.HasPrefix(got[0], "Team engagement is critically low") {
		t.Fatalf("risk[0] = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Attrition risk is high") {
		t.Fatalf("risk[1] = %q", got[1])
	}
	if !strings.HasPrefix(got[2], "Compliance is weak") {
		t.Fatalf("risk[2] = %q", got[2])
	}
}

func TestRisksPadsWithDefaults(t *testing.T) {
	got := Risks(metrics.Baseline(metrics.SizeMedium))
	if got[0] != "Monitor team workload — sustained pressure can erode performance." {
		t.Fatalf("risk[0] = %q", got[0])
	}
	if len(got) != 3 {
		t.Fatalf("want 3 risks, got %d", len(got))
	}
}

func TestRecommendationsRankWorstFirst(t *testing.T) {
	// Baseline badness: waste 58, queue 60, engagement 68, retention 70,
	// satisfaction 72, compliance 75.
	got := Recommendations(metrics.Baseline(metrics.SizeMedium))
	if len(got) != 3 {
		t.Fatalf("want 3 recommendations, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "Tighten waste controls") {
		t.Fatalf("rec[0] = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Improve checkout speed") {
		t.Fatalf("rec[1] = %q", got[1])
	}
	if !strings.HasPrefix(got[2], "Invest in colleague wellbeing") {
		t.Fatalf("rec[2] = %q", got[2])
	}
}

func TestRecommendationsFollowTheCrisis(t *testing.T) {
	m := metrics.Baseline(metrics.SizeMedium)
	m.EngagementScore = 30
	got := Recommendations(m)
	if !strings.HasPrefix(got[0], "Invest in colleague wellbeing") {
		t.Fatalf("rec[0] = %q", got[0])
	}
}
