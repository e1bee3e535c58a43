// Package storetest runs a Repository implementation through the behaviour
// every backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
	"github.com/chrisf-bit/store-manager/internal/store"
)

// Run exercises repo. The caller owns opening and closing it.
func Run(t *testing.T, repo store.Repository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.GetRun(ctx, uuid.NewString()); err != store.ErrNotFound {
		t.Fatalf("GetRun on empty repo: err = %v, want ErrNotFound", err)
	}

	run := store.Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		StoreName: "FreshWay Markets – Riverside",
		StoreSize: "medium",
		Region:    "Midlands",
		Status:    store.StatusInProgress,
		RunSeed:   123456789,
	}
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != run {
		t.Fatalf("GetRun round-trip:\ngot  %+v\nwant %+v", got, run)
	}

	run.CurrentRound = 2
	run.Status = store.StatusCompleted
	if err := repo.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}
	got, _ = repo.GetRun(ctx, run.ID)
	if got.CurrentRound != 2 || got.Status != store.StatusCompleted {
		t.Fatalf("UpdateRun not applied: %+v", got)
	}

	missing := run
	missing.ID = uuid.NewString()
	if err := repo.UpdateRun(ctx, missing); err != store.ErrNotFound {
		t.Fatalf("UpdateRun missing run: err = %v, want ErrNotFound", err)
	}

	// Round states, inserted out of order; listing sorts by round.
	base := metrics.Baseline(metrics.SizeMedium)
	for _, round := range []int{2, 0, 1} {
		m := base
		m.Revenue += float64(round * 1000)
		rs := store.RoundState{
			ID:          uuid.NewString(),
			RunID:       run.ID,
			RoundNumber: round,
			Metrics:     m,
			Narrative:   "week in review",
		}
		if err := repo.AddRoundState(ctx, rs); err != nil {
			t.Fatalf("AddRoundState round %d: %v", round, err)
		}
	}
	states, err := repo.ListRoundStates(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListRoundStates: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("ListRoundStates = %d rows, want 3", len(states))
	}
	for i, rs := range states {
		if rs.RoundNumber != i {
			t.Fatalf("states out of order: %d at index %d", rs.RoundNumber, i)
		}
	}
	rs1, err := repo.GetRoundState(ctx, run.ID, 1)
	if err != nil {
		t.Fatalf("GetRoundState: %v", err)
	}
	if rs1.Metrics.Revenue != base.Revenue+1000 {
		t.Fatalf("metrics did not round-trip: revenue %v", rs1.Metrics.Revenue)
	}
	if _, err := repo.GetRoundState(ctx, run.ID, 9); err != store.ErrNotFound {
		t.Fatalf("GetRoundState missing round: err = %v, want ErrNotFound", err)
	}

	sels := []store.DecisionSelection{
		{ID: uuid.NewString(), RunID: run.ID, RoundNumber: 1, TemplateID: "commercial_strategy", OptionKey: "balanced"},
		{ID: uuid.NewString(), RunID: run.ID, RoundNumber: 1, TemplateID: "labour_plan", OptionKey: "hold_hours"},
	}
	if err := repo.AddDecisionSelections(ctx, sels); err != nil {
		t.Fatalf("AddDecisionSelections: %v", err)
	}
	gotSels, err := repo.ListDecisionSelections(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListDecisionSelections: %v", err)
	}
	if len(gotSels) != 2 {
		t.Fatalf("ListDecisionSelections = %d rows, want 2", len(gotSels))
	}

	ev := store.EventInstance{
		ID:              uuid.NewString(),
		RunID:           run.ID,
		RoundNumber:     1,
		TemplateID:      "FRIDGE_FAILURE",
		ResolvedEffects: metrics.Delta{"wastePct": 1.2, "netProfit": -2000},
	}
	if err := repo.AddEventInstance(ctx, ev); err != nil {
		t.Fatalf("AddEventInstance: %v", err)
	}
	gotEv, err := repo.GetEventInstance(ctx, run.ID, 1)
	if err != nil {
		t.Fatalf("GetEventInstance: %v", err)
	}
	if gotEv.TemplateID != "FRIDGE_FAILURE" || gotEv.ResolvedEffects["wastePct"] != 1.2 {
		t.Fatalf("event did not round-trip: %+v", gotEv)
	}
	if _, err := repo.GetEventInstance(ctx, run.ID, 3); err != store.ErrNotFound {
		t.Fatalf("GetEventInstance missing round: err = %v, want ErrNotFound", err)
	}
	evs, err := repo.ListEventInstances(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListEventInstances: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("ListEventInstances = %d rows, want 1", len(evs))
	}

	// Rows are scoped per run.
	other := store.Run{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), StoreName: "n", StoreSize: "small", Region: "North", Status: store.StatusInProgress, RunSeed: 1}
	if err := repo.CreateRun(ctx, other); err != nil {
		t.Fatalf("CreateRun other: %v", err)
	}
	if states, _ := repo.ListRoundStates(ctx, other.ID); len(states) != 0 {
		t.Fatalf("other run sees %d round states", len(states))
	}
}
