package game_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/chrisf-bit/store-manager/internal/game"
	"github.com/chrisf-bit/store-manager/internal/sim/catalogs"
	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
	"github.com/chrisf-bit/store-manager/internal/sim/tuning"
	"github.com/chrisf-bit/store-manager/internal/store"
	"github.com/chrisf-bit/store-manager/internal/store/memory"
)

func newService(t *testing.T, seed int32) *game.Service {
	t.Helper()
	cat, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return game.New(game.Config{
		Log:      log.New(io.Discard, "", 0),
		Repo:     memory.New(),
		Catalogs: cat,
		Tuning:   tuning.Defaults(),
		Now:      func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) },
		Seed:     func() int32 { return seed },
	})
}

func allDecisions() []game.DecisionInput {
	return []game.DecisionInput{
		{TemplateID: "commercial_strategy", OptionKey: "balanced"},
		{TemplateID: "labour_plan", OptionKey: "hold_hours"},
		{TemplateID: "operations_focus", OptionKey: "availability"},
		{TemplateID: "investment_allocation", OptionKey: "wellbeing"},
	}
}

func TestCreateRunDefaults(t *testing.T) {
	svc := newService(t, 42)
	ctx := context.Background()

	created, err := svc.CreateRun(ctx, game.NewRunParams{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	run := created.Run
	def := tuning.Defaults().DefaultStore
	if run.StoreName != def.Name || run.StoreSize != def.Size || run.Region != def.Region {
		t.Fatalf("defaults not applied: %+v", run)
	}
	if run.CurrentRound != 0 || run.Status != store.StatusInProgress || run.RunSeed != 42 {
		t.Fatalf("bad new run: %+v", run)
	}
	if created.State.RoundNumber != 0 {
		t.Fatalf("round zero state expected, got %d", created.State.RoundNumber)
	}
	if created.State.Metrics != metrics.Baseline(metrics.SizeMedium) {
		t.Fatalf("round zero metrics are not the medium baseline")
	}
	if !strings.Contains(created.State.Narrative, "Welcome to **"+def.Name+"**!") {
		t.Fatalf("welcome narrative missing: %q", created.State.Narrative)
	}

	got, err := svc.Run(ctx, run.ID)
	if err != nil || got != run {
		t.Fatalf("run lookup: %+v, %v", got, err)
	}
}

func TestCreateRunRejectsUnknownSize(t *testing.T) {
	svc := newService(t, 1)
	_, err := svc.CreateRun(context.Background(), game.NewRunParams{StoreSize: "hypermarket"})
	if !errors.Is(err, game.ErrInvalidSubmission) {
		t.Fatalf("err = %v, want ErrInvalidSubmission", err)
	}
}

func TestFullRunToCompletion(t *testing.T) {
	svc := newService(t, 777)
	ctx := context.Background()

	created, err := svc.CreateRun(ctx, game.NewRunParams{StoreName: "Riverside", StoreSize: "small", Region: "North"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	runID := created.Run.ID

	eventIDs := map[string]bool{}
	for round := 1; round <= 4; round++ {
		choices := []game.ScenarioChoice{{ScenarioID: scenarioFor(round), OptionIndex: 0}}
		out, err := svc.SubmitRound(ctx, runID, round, allDecisions(), choices)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if out.Run.CurrentRound != round {
			t.Fatalf("round %d: currentRound = %d", round, out.Run.CurrentRound)
		}
		if out.State.RoundNumber != round {
			t.Fatalf("round %d: state round = %d", round, out.State.RoundNumber)
		}
		m := out.State.Metrics
		if m.Revenue != metrics.RoundTo(m.Footfall*m.Conversion*m.BasketSize, 0) {
			t.Fatalf("round %d: revenue %v does not match its drivers", round, m.Revenue)
		}
		if !strings.HasPrefix(out.State.Narrative, "**Week ") {
			t.Fatalf("round %d: narrative %q", round, out.State.Narrative)
		}
		if !strings.Contains(out.State.Narrative, "**Event: "+out.Event.Title+"**") {
			t.Fatalf("round %d: narrative is missing the event line", round)
		}
		if eventIDs[out.Event.ID] {
			t.Fatalf("round %d: event %s repeated within the run", round, out.Event.ID)
		}
		eventIDs[out.Event.ID] = true

		wantStatus := store.StatusInProgress
		if round == 4 {
			wantStatus = store.StatusCompleted
		}
		if out.Run.Status != wantStatus {
			t.Fatalf("round %d: status = %s, want %s", round, out.Run.Status, wantStatus)
		}
	}

	if _, err := svc.SubmitRound(ctx, runID, 5, allDecisions(), nil); !errors.Is(err, game.ErrRunCompleted) {
		t.Fatalf("submit after completion: %v", err)
	}
}

func TestSubmitRoundSequencing(t *testing.T) {
	svc := newService(t, 5)
	ctx := context.Background()
	created, _ := svc.CreateRun(ctx, game.NewRunParams{})

	if _, err := svc.SubmitRound(ctx, created.Run.ID, 2, allDecisions(), nil); !errors.Is(err, game.ErrRoundOutOfSequence) {
		t.Fatalf("skipping a round: %v", err)
	}
	if _, err := svc.SubmitRound(ctx, "no-such-run", 1, allDecisions(), nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown run: %v", err)
	}
}

func TestSubmitRoundValidation(t *testing.T) {
	svc := newService(t, 5)
	ctx := context.Background()
	created, _ := svc.CreateRun(ctx, game.NewRunParams{})
	runID := created.Run.ID

	cases := []struct {
		name    string
		decs    []game.DecisionInput
		choices []game.ScenarioChoice
	}{
		{"missing category", allDecisions()[:3], nil},
		{"unknown template", append(allDecisions()[:3], game.DecisionInput{TemplateID: "pricing", OptionKey: "balanced"}), nil},
		{"unknown option", append(allDecisions()[:3], game.DecisionInput{TemplateID: "investment_allocation", OptionKey: "crypto"}), nil},
		{"duplicate category", append(allDecisions(), game.DecisionInput{TemplateID: "labour_plan", OptionKey: "add_hours"}), nil},
		{"unknown scenario", allDecisions(), []game.ScenarioChoice{{ScenarioID: "r9_s9", OptionIndex: 0}}},
		{"wrong scenario round", allDecisions(), []game.ScenarioChoice{{ScenarioID: "r2_s1", OptionIndex: 0}}},
		{"option index out of range", allDecisions(), []game.ScenarioChoice{{ScenarioID: "r1_s1", OptionIndex: 99}}},
	}
	for _, tc := range cases {
		if _, err := svc.SubmitRound(ctx, runID, 1, tc.decs, tc.choices); !errors.Is(err, game.ErrInvalidSubmission) {
			t.Errorf("%s: err = %v, want ErrInvalidSubmission", tc.name, err)
		}
	}

	// Nothing may have been persisted by the rejected submissions.
	run, err := svc.Run(ctx, runID)
	if err != nil || run.CurrentRound != 0 {
		t.Fatalf("rejected submissions advanced the run: %+v, %v", run, err)
	}
}

func TestSameSeedResolvesIdentically(t *testing.T) {
	ctx := context.Background()
	finals := make([]metrics.Metrics, 2)
	for i := range finals {
		svc := newService(t, 31337)
		created, err := svc.CreateRun(ctx, game.NewRunParams{})
		if err != nil {
			t.Fatal(err)
		}
		var last metrics.Metrics
		for round := 1; round <= 4; round++ {
			out, err := svc.SubmitRound(ctx, created.Run.ID, round, allDecisions(), nil)
			if err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
			last = out.State.Metrics
		}
		finals[i] = last
	}
	if finals[0] != finals[1] {
		t.Fatalf("same seed diverged:\n%+v\n%+v", finals[0], finals[1])
	}
}

func TestRoundData(t *testing.T) {
	svc := newService(t, 9)
	ctx := context.Background()
	created, _ := svc.CreateRun(ctx, game.NewRunParams{})
	runID := created.Run.ID

	info, err := svc.RoundData(ctx, runID, 0)
	if err != nil {
		t.Fatalf("round 0: %v", err)
	}
	if len(info.Templates) != 4 {
		t.Fatalf("round 0 templates = %d", len(info.Templates))
	}
	for _, sc := range info.Scenarios {
		if sc.Round != 1 {
			t.Fatalf("round 0 offered scenario for round %d", sc.Round)
		}
	}
	if info.Event != nil || len(info.Decisions) != 0 {
		t.Fatalf("round 0 must have no history: %+v", info)
	}

	if _, err := svc.SubmitRound(ctx, runID, 1, allDecisions(), nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	info, err = svc.RoundData(ctx, runID, 1)
	if err != nil {
		t.Fatalf("round 1: %v", err)
	}
	if len(info.Decisions) != 4 {
		t.Fatalf("round 1 decisions = %d", len(info.Decisions))
	}
	if info.Event == nil || info.Event.RoundNumber != 1 {
		t.Fatalf("round 1 event missing: %+v", info.Event)
	}
	for _, sc := range info.Scenarios {
		if sc.Round != 2 {
			t.Fatalf("round 1 offered scenario for round %d", sc.Round)
		}
	}

	if _, err := svc.RoundData(ctx, runID, 3); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unplayed round: %v", err)
	}
}

func TestReport(t *testing.T) {
	svc := newService(t, 2024)
	ctx := context.Background()
	created, _ := svc.CreateRun(ctx, game.NewRunParams{})
	runID := created.Run.ID

	for round := 1; round <= 4; round++ {
		if _, err := svc.SubmitRound(ctx, runID, round, allDecisions(), nil); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}

	rep, err := svc.Report(ctx, runID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Run.Status != store.StatusCompleted {
		t.Fatalf("status = %s", rep.Run.Status)
	}
	if len(rep.Scorecard) != 4 {
		t.Fatalf("scorecard groups = %d", len(rep.Scorecard))
	}
	names := []string{"Financial", "Customer", "People", "Operations"}
	for i, cat := range rep.Scorecard {
		if cat.Name != names[i] {
			t.Fatalf("group %d = %s, want %s", i, cat.Name, names[i])
		}
		if cat.Score < 0 || cat.Score > 100 {
			t.Fatalf("%s score %d out of band", cat.Name, cat.Score)
		}
		for _, sm := range cat.Metrics {
			switch sm.Trend {
			case game.TrendUp, game.TrendDown, game.TrendFlat:
			default:
				t.Fatalf("%s/%s trend %q", cat.Name, sm.Label, sm.Trend)
			}
		}
	}
	revenue, ok := rep.Scorecard[0].Metrics[0].Value.(string)
	if !ok || !strings.HasPrefix(revenue, "£") {
		t.Fatalf("revenue value = %v", rep.Scorecard[0].Metrics[0].Value)
	}
	switch rep.Grade {
	case "Developing", "Ready Soon", "Ready", "High Performing":
	default:
		t.Fatalf("grade = %q", rep.Grade)
	}
	if len(rep.Strengths) != 3 || len(rep.Risks) != 3 || len(rep.Recommendations) != 3 {
		t.Fatalf("editorial sections must have three lines each")
	}
	if len(rep.Rounds) != 4 {
		t.Fatalf("rounds = %d", len(rep.Rounds))
	}
	for _, rr := range rep.Rounds {
		if len(rr.Decisions) != 4 {
			t.Fatalf("round %d decisions = %d", rr.RoundNumber, len(rr.Decisions))
		}
		if rr.Event == nil || rr.Event.Template.ID != rr.Event.TemplateID {
			t.Fatalf("round %d event not joined to its template", rr.RoundNumber)
		}
	}
}

func scenarioFor(round int) string {
	switch round {
	case 1:
		return "r1_s1"
	case 2:
		return "r2_s1"
	case 3:
		return "r3_s1"
	default:
		return "r4_s1"
	}
}
