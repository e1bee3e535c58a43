// Package game orchestrates runs: it creates them, validates and resolves
// round submissions, and assembles the end-of-run report. It owns no
// simulation maths of its own; numbers come from the sim packages and rows go
// through the store.Repository.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/chrisf-bit/store-manager/internal/persistence/auditlog"
	"github.com/chrisf-bit/store-manager/internal/sim/catalogs"
	"github.com/chrisf-bit/store-manager/internal/sim/decisions"
	"github.com/chrisf-bit/store-manager/internal/sim/engine"
	"github.com/chrisf-bit/store-manager/internal/sim/events"
	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
	"github.com/chrisf-bit/store-manager/internal/sim/narrative"
	"github.com/chrisf-bit/store-manager/internal/sim/simrng"
	"github.com/chrisf-bit/store-manager/internal/sim/tuning"
	"github.com/chrisf-bit/store-manager/internal/store"
	"github.com/chrisf-bit/store-manager/internal/transport/watch"
)

var (
	// ErrRunCompleted is returned when decisions are submitted to a finished run.
	ErrRunCompleted = errors.New("run already completed")
	// ErrRoundOutOfSequence is returned when the submitted round is not the
	// run's next round.
	ErrRoundOutOfSequence = errors.New("round out of sequence")
	// ErrInvalidSubmission wraps all decision and scenario validation failures.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Config assembles a Service. Repo, Catalogs and Tuning are required; Audit
// and Hub are optional sinks, Now and Seed are test seams.
type Config struct {
	Log      *log.Logger
	Repo     store.Repository
	Catalogs *catalogs.Catalogs
	Tuning   tuning.Tuning

	Audit *auditlog.Writer
	Hub   *watch.Hub

	Now  func() time.Time
	Seed func() int32
}

type Service struct {
	log   *log.Logger
	repo  store.Repository
	cat   *catalogs.Catalogs
	tun   tuning.Tuning
	audit *auditlog.Writer
	hub   *watch.Hub
	now   func() time.Time
	seed  func() int32
}

func New(cfg Config) *Service {
	s := &Service{
		log:   cfg.Log,
		repo:  cfg.Repo,
		cat:   cfg.Catalogs,
		tun:   cfg.Tuning,
		audit: cfg.Audit,
		hub:   cfg.Hub,
		now:   cfg.Now,
		seed:  cfg.Seed,
	}
	if s.log == nil {
		s.log = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.seed == nil {
		s.seed = rand.Int32
	}
	return s
}

// NewRunParams selects the store a run manages. Empty fields fall back to the
// configured defaults.
type NewRunParams struct {
	StoreName string `json:"storeName"`
	StoreSize string `json:"storeSize"`
	Region    string `json:"region"`
}

// NewRun is the freshly created run and its round-zero state.
type NewRun struct {
	Run   store.Run        `json:"run"`
	State store.RoundState `json:"state"`
}

const welcomeText = "Welcome to **%s**! You're the new store manager. Your %s store in the %s region is ready for you to lead. Review your starting metrics and make your first set of decisions."

// CreateRun starts a run at round zero with the baseline metrics for its
// store size and a fresh random seed.
func (s *Service) CreateRun(ctx context.Context, p NewRunParams) (NewRun, error) {
	if p.StoreName == "" {
		p.StoreName = s.tun.DefaultStore.Name
	}
	if p.StoreSize == "" {
		p.StoreSize = s.tun.DefaultStore.Size
	}
	if p.Region == "" {
		p.Region = s.tun.DefaultStore.Region
	}
	if !metrics.ValidSize(metrics.StoreSize(p.StoreSize)) {
		return NewRun{}, fmt.Errorf("%w: unknown store size %q", ErrInvalidSubmission, p.StoreSize)
	}

	run := store.Run{
		ID:           uuid.NewString(),
		CreatedAt:    s.now().UTC(),
		StoreName:    p.StoreName,
		StoreSize:    p.StoreSize,
		Region:       p.Region,
		CurrentRound: 0,
		Status:       store.StatusInProgress,
		RunSeed:      s.seed(),
	}
	state := store.RoundState{
		ID:          uuid.NewString(),
		RunID:       run.ID,
		RoundNumber: 0,
		Metrics:     metrics.Baseline(metrics.StoreSize(p.StoreSize)),
		Narrative:   fmt.Sprintf(welcomeText, p.StoreName, p.StoreSize, p.Region),
	}

	if err := s.repo.CreateRun(ctx, run); err != nil {
		return NewRun{}, err
	}
	if err := s.repo.AddRoundState(ctx, state); err != nil {
		return NewRun{}, err
	}

	s.log.Printf("run %s created: %s (%s, %s) seed=%d", run.ID, run.StoreName, run.StoreSize, run.Region, run.RunSeed)
	return NewRun{Run: run, State: state}, nil
}

// Run returns the run record.
func (s *Service) Run(ctx context.Context, id string) (store.Run, error) {
	return s.repo.GetRun(ctx, id)
}

// RoundInfo is everything a client needs to show one round: the state after
// it resolved, plus the choices on offer for the round that follows.
type RoundInfo struct {
	Run   store.Run        `json:"run"`
	State store.RoundState `json:"state"`

	// Templates and Scenarios describe the next round's choices. Empty once
	// the run is complete.
	Templates []catalogs.DecisionTemplate `json:"decisionTemplates"`
	Scenarios []catalogs.Scenario         `json:"scenarios"`

	// Decisions and Event are what produced this state. Nil for round zero.
	Decisions []store.DecisionSelection `json:"previousDecisions,omitempty"`
	Event     *store.EventInstance      `json:"previousEvent,omitempty"`
}

// RoundData returns the state after the given round together with the
// decision templates and scenarios for the round that follows it.
func (s *Service) RoundData(ctx context.Context, runID string, round int) (RoundInfo, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return RoundInfo{}, err
	}
	state, err := s.repo.GetRoundState(ctx, runID, round)
	if err != nil {
		return RoundInfo{}, err
	}

	info := RoundInfo{Run: run, State: state}
	if round < s.tun.RoundsPerRun {
		info.Templates = s.cat.Decisions.Templates
		info.Scenarios = s.cat.Scenarios.ForRound(round + 1)
	}

	if round > 0 {
		sels, err := s.repo.ListDecisionSelections(ctx, runID)
		if err != nil {
			return RoundInfo{}, err
		}
		for _, sel := range sels {
			if sel.RoundNumber == round {
				info.Decisions = append(info.Decisions, sel)
			}
		}
		ev, err := s.repo.GetEventInstance(ctx, runID, round)
		if err == nil {
			info.Event = &ev
		} else if !errors.Is(err, store.ErrNotFound) {
			return RoundInfo{}, err
		}
	}
	return info, nil
}

// DecisionInput pairs a decision template with the chosen option key.
type DecisionInput struct {
	TemplateID string `json:"decisionTemplateId"`
	OptionKey  string `json:"optionKey"`
}

// ScenarioChoice picks one response option for a management scenario.
type ScenarioChoice struct {
	ScenarioID  string `json:"scenarioId"`
	OptionIndex int    `json:"optionIndex"`
}

// RoundOutcome is the result of a resolved round.
type RoundOutcome struct {
	Run    store.Run        `json:"run"`
	State  store.RoundState `json:"state"`
	Deltas metrics.Delta    `json:"deltas"`
	Event  events.Template  `json:"event"`
}

// SubmitRound validates a submission, resolves the round and persists the
// outcome. The submitted round must be the run's next round; every decision
// category must be covered exactly once.
func (s *Service) SubmitRound(ctx context.Context, runID string, round int, decs []DecisionInput, choices []ScenarioChoice) (RoundOutcome, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return RoundOutcome{}, err
	}
	if run.Status == store.StatusCompleted {
		return RoundOutcome{}, ErrRunCompleted
	}
	if round != run.CurrentRound+1 || round > s.tun.RoundsPerRun {
		return RoundOutcome{}, fmt.Errorf("%w: got round %d, expected %d", ErrRoundOutOfSequence, round, run.CurrentRound+1)
	}

	set, err := s.buildSet(decs)
	if err != nil {
		return RoundOutcome{}, err
	}
	scenarioEffects, err := s.sumScenarioEffects(round, choices)
	if err != nil {
		return RoundOutcome{}, err
	}

	prev, err := s.repo.GetRoundState(ctx, runID, round-1)
	if err != nil {
		return RoundOutcome{}, err
	}
	past, err := s.repo.ListEventInstances(ctx, runID)
	if err != nil {
		return RoundOutcome{}, err
	}
	usedIDs := make([]string, 0, len(past))
	for _, ev := range past {
		usedIDs = append(usedIDs, ev.TemplateID)
	}

	// One seeded stream per round: the event draw consumes the first value,
	// the engine's noise loop the rest.
	rng := simrng.New(run.RunSeed + int32(round)*s.tun.RoundSeedStride)
	event := events.Select(s.cat.Events.Templates, prev.Metrics, rng.Float64, usedIDs)

	combined := event.Effects.Clone()
	for field, v := range scenarioEffects {
		combined[field] += v
	}

	res := engine.ResolveRound(prev.Metrics, set, combined, rng.Float64)
	text := narrative.Derive(res.NewMetrics, &prev.Metrics, &narrative.Event{
		Title:       event.Title,
		Description: event.Description,
	}, set, round)

	sels := make([]store.DecisionSelection, 0, len(decs))
	for _, d := range decs {
		sels = append(sels, store.DecisionSelection{
			ID:          uuid.NewString(),
			RunID:       runID,
			RoundNumber: round,
			TemplateID:  d.TemplateID,
			OptionKey:   d.OptionKey,
		})
	}
	instance := store.EventInstance{
		ID:              uuid.NewString(),
		RunID:           runID,
		RoundNumber:     round,
		TemplateID:      event.ID,
		ResolvedEffects: res.EventEffects,
	}
	state := store.RoundState{
		ID:          uuid.NewString(),
		RunID:       runID,
		RoundNumber: round,
		Metrics:     res.NewMetrics,
		Narrative:   text,
	}

	if err := s.repo.AddDecisionSelections(ctx, sels); err != nil {
		return RoundOutcome{}, err
	}
	if err := s.repo.AddEventInstance(ctx, instance); err != nil {
		return RoundOutcome{}, err
	}
	if err := s.repo.AddRoundState(ctx, state); err != nil {
		return RoundOutcome{}, err
	}

	run.CurrentRound = round
	if round >= s.tun.RoundsPerRun {
		run.Status = store.StatusCompleted
	}
	if err := s.repo.UpdateRun(ctx, run); err != nil {
		return RoundOutcome{}, err
	}

	s.auditRound(run, round, event.ID, set, choices, res.Deltas)
	s.publishRound(run, state, res.Deltas, event.ID)

	s.log.Printf("run %s round %d resolved: event=%s revenue=%.0f status=%s", runID, round, event.ID, res.NewMetrics.Revenue, run.Status)
	return RoundOutcome{Run: run, State: state, Deltas: res.Deltas, Event: event}, nil
}

// buildSet validates the decision inputs against the catalog and folds them
// into a per-category set.
func (s *Service) buildSet(decs []DecisionInput) (decisions.Set, error) {
	var set decisions.Set
	seen := map[string]bool{}
	for _, d := range decs {
		var tmpl catalogs.DecisionTemplate
		found := false
		for _, t := range s.cat.Decisions.Templates {
			if t.ID == d.TemplateID {
				tmpl, found = t, true
				break
			}
		}
		if !found {
			return set, fmt.Errorf("%w: unknown decision template %q", ErrInvalidSubmission, d.TemplateID)
		}
		if !tmpl.HasOption(d.OptionKey) {
			return set, fmt.Errorf("%w: template %s has no option %q", ErrInvalidSubmission, d.TemplateID, d.OptionKey)
		}
		if seen[tmpl.Category] {
			return set, fmt.Errorf("%w: duplicate decision for category %q", ErrInvalidSubmission, tmpl.Category)
		}
		seen[tmpl.Category] = true
		switch tmpl.Category {
		case decisions.CategoryCommercial:
			set.Commercial = d.OptionKey
		case decisions.CategoryLabour:
			set.Labour = d.OptionKey
		case decisions.CategoryOperations:
			set.Operations = d.OptionKey
		case decisions.CategoryInvestment:
			set.Investment = d.OptionKey
		}
	}
	for _, cat := range decisions.Categories {
		if !seen[cat] {
			return set, fmt.Errorf("%w: missing decision for category %q", ErrInvalidSubmission, cat)
		}
	}
	return set, nil
}

// sumScenarioEffects validates the scenario choices for the round and sums
// the chosen options' effects.
func (s *Service) sumScenarioEffects(round int, choices []ScenarioChoice) (metrics.Delta, error) {
	out := metrics.Delta{}
	seen := map[string]bool{}
	for _, c := range choices {
		sc, ok := s.cat.Scenarios.ByID[c.ScenarioID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown scenario %q", ErrInvalidSubmission, c.ScenarioID)
		}
		if sc.Round != round {
			return nil, fmt.Errorf("%w: scenario %s belongs to round %d", ErrInvalidSubmission, c.ScenarioID, sc.Round)
		}
		if c.OptionIndex < 0 || c.OptionIndex >= len(sc.Options) {
			return nil, fmt.Errorf("%w: scenario %s has no option %d", ErrInvalidSubmission, c.ScenarioID, c.OptionIndex)
		}
		if seen[c.ScenarioID] {
			return nil, fmt.Errorf("%w: duplicate response for scenario %q", ErrInvalidSubmission, c.ScenarioID)
		}
		seen[c.ScenarioID] = true
		for field, v := range sc.Options[c.OptionIndex].Effects {
			out[field] += v
		}
	}
	return out, nil
}

func (s *Service) auditRound(run store.Run, round int, eventID string, set decisions.Set, choices []ScenarioChoice, deltas metrics.Delta) {
	if s.audit == nil {
		return
	}
	entry := auditlog.Entry{
		Time:        s.now().UTC(),
		RunID:       run.ID,
		RoundNumber: round,
		EventID:     eventID,
		Decisions: map[string]string{
			decisions.CategoryCommercial: set.Commercial,
			decisions.CategoryLabour:     set.Labour,
			decisions.CategoryOperations: set.Operations,
			decisions.CategoryInvestment: set.Investment,
		},
		Deltas: deltas,
	}
	if len(choices) > 0 {
		entry.Scenarios = map[string]int{}
		for _, c := range choices {
			entry.Scenarios[c.ScenarioID] = c.OptionIndex
		}
	}
	if err := s.audit.Write(entry); err != nil {
		s.log.Printf("audit write failed for run %s round %d: %v", run.ID, round, err)
	}
}

func (s *Service) publishRound(run store.Run, state store.RoundState, deltas metrics.Delta, eventID string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(run.ID, map[string]any{
		"runId":         run.ID,
		"roundNumber":   state.RoundNumber,
		"status":        run.Status,
		"eventId":       eventID,
		"metrics":       state.Metrics,
		"deltas":        deltas,
		"narrativeText": state.Narrative,
	})
}
