// Package store defines the persistence records for simulation runs and the
// Repository interface the game layer talks to. Implementations live in the
// memory and sqldb subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
)

// ErrNotFound is returned when a run, round state or event instance does not
// exist.
var ErrNotFound = errors.New("store: not found")

// Run statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Run is one playthrough of the simulation.
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	StoreName    string    `json:"storeName"`
	StoreSize    string    `json:"storeSize"`
	Region       string    `json:"region"`
	CurrentRound int       `json:"currentRound"`
	Status       string    `json:"status"`
	RunSeed      int32     `json:"runSeed"`
}

// RoundState is the metrics snapshot and narrative after a round. Round 0 is
// the starting state.
type RoundState struct {
	ID          string          `json:"id"`
	RunID       string          `json:"runId"`
	RoundNumber int             `json:"roundNumber"`
	Metrics     metrics.Metrics `json:"metrics"`
	Narrative   string          `json:"narrativeText"`
}

// DecisionSelection records one option chosen for one category template in a
// round.
type DecisionSelection struct {
	ID          string `json:"id"`
	RunID       string `json:"runId"`
	RoundNumber int    `json:"roundNumber"`
	TemplateID  string `json:"decisionTemplateId"`
	OptionKey   string `json:"optionKey"`
}

// EventInstance records which event hit a round and the combined effects that
// were actually applied (event plus scenario responses).
type EventInstance struct {
	ID              string        `json:"id"`
	RunID           string        `json:"runId"`
	RoundNumber     int           `json:"roundNumber"`
	TemplateID      string        `json:"eventTemplateId"`
	ResolvedEffects metrics.Delta `json:"resolvedEffects"`
}

// Repository is the persistence surface for runs. List methods return rows
// ordered by round number.
type Repository interface {
	CreateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	UpdateRun(ctx context.Context, run Run) error

	AddRoundState(ctx context.Context, rs RoundState) error
	GetRoundState(ctx context.Context, runID string, round int) (RoundState, error)
	ListRoundStates(ctx context.Context, runID string) ([]RoundState, error)

	AddDecisionSelections(ctx context.Context, sels []DecisionSelection) error
	ListDecisionSelections(ctx context.Context, runID string) ([]DecisionSelection, error)

	AddEventInstance(ctx context.Context, ev EventInstance) error
	GetEventInstance(ctx context.Context, runID string, round int) (EventInstance, error)
	ListEventInstances(ctx context.Context, runID string) ([]EventInstance, error)

	Close() error
}
