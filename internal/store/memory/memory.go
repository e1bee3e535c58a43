// Package memory is the in-process Repository used for tests and for running
// the server without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chrisf-bit/store-manager/internal/store"
)

type Repo struct {
	mu         sync.RWMutex
	runs       map[string]store.Run
	states     map[string][]store.RoundState
	selections map[string][]store.DecisionSelection
	events     map[string][]store.EventInstance
}

var _ store.Repository = (*Repo)(nil)

func New() *Repo {
	return &Repo{
		runs:       map[string]store.Run{},
		states:     map[string][]store.RoundState{},
		selections: map[string][]store.DecisionSelection{},
		events:     map[string][]store.EventInstance{},
	}
}

func (r *Repo) CreateRun(_ context.Context, run store.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *Repo) GetRun(_ context.Context, id string) (store.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return store.Run{}, store.ErrNotFound
	}
	return run, nil
}

func (r *Repo) UpdateRun(_ context.Context, run store.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return store.ErrNotFound
	}
	r.runs[run.ID] = run
	return nil
}

func (r *Repo) AddRoundState(_ context.Context, rs store.RoundState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[rs.RunID] = append(r.states[rs.RunID], rs)
	return nil
}

func (r *Repo) GetRoundState(_ context.Context, runID string, round int) (store.RoundState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rs := range r.states[runID] {
		if rs.RoundNumber == round {
			return rs, nil
		}
	}
	return store.RoundState{}, store.ErrNotFound
}

func (r *Repo) ListRoundStates(_ context.Context, runID string) ([]store.RoundState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]store.RoundState(nil), r.states[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

func (r *Repo) AddDecisionSelections(_ context.Context, sels []store.DecisionSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sels {
		r.selections[s.RunID] = append(r.selections[s.RunID], s)
	}
	return nil
}

func (r *Repo) ListDecisionSelections(_ context.Context, runID string) ([]store.DecisionSelection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]store.DecisionSelection(nil), r.selections[runID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

func (r *Repo) AddEventInstance(_ context.Context, ev store.EventInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[ev.RunID] = append(r.events[ev.RunID], ev)
	return nil
}

func (r *Repo) GetEventInstance(_ context.Context, runID string, round int) (store.EventInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ev := range r.events[runID] {
		if ev.RoundNumber == round {
			return ev, nil
		}
	}
	return store.EventInstance{}, store.ErrNotFound
}

func (r *Repo) ListEventInstances(_ context.Context, runID string) ([]store.EventInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]store.EventInstance(nil), r.events[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

func (r *Repo) Close() error { return nil }
