// Package catalogs loads the editorial content a run is built from: decision
// templates, weekly events, management scenarios and allocation templates.
// Content is authored as JSON under the config directory; every catalog keeps
// a digest of its raw bytes so persisted runs can be checked against the
// content they were created with.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrisf-bit/store-manager/internal/sim/decisions"
	"github.com/chrisf-bit/store-manager/internal/sim/events"
)

type Catalogs struct {
	Decisions   DecisionCatalog
	Events      EventCatalog
	Scenarios   ScenarioCatalog
	Allocations AllocationCatalog
}

type DecisionCatalog struct {
	Templates  []DecisionTemplate
	ByCategory map[string]DecisionTemplate
	Digest     string
}

type DecisionTemplate struct {
	ID       string           `json:"id"`
	Category string           `json:"category"`
	Title    string           `json:"title"`
	Options  []DecisionOption `json:"options"`
}

type DecisionOption struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// HasOption reports whether key is one of the template's option keys.
func (t DecisionTemplate) HasOption(key string) bool {
	for _, o := range t.Options {
		if o.Key == key {
			return true
		}
	}
	return false
}

type EventCatalog struct {
	// Templates keeps authoring order; the weighted sampler walks it in
	// sequence, so order is part of a run's determinism.
	Templates []events.Template
	ByID      map[string]events.Template
	Digest    string
}

type ScenarioCatalog struct {
	Scenarios []Scenario
	ByID      map[string]Scenario
	Digest    string
}

type Scenario struct {
	ID          string           `json:"id"`
	Round       int              `json:"round"`
	Category    string           `json:"category"`
	Delivery    string           `json:"delivery"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Options     []ScenarioOption `json:"options"`
}

type ScenarioOption struct {
	Label       string             `json:"label"`
	Description string             `json:"description"`
	Effects     map[string]float64 `json:"effects"`
}

// ForRound returns the scenarios authored for the given round, in catalog
// order.
func (c ScenarioCatalog) ForRound(round int) []Scenario {
	var out []Scenario
	for _, s := range c.Scenarios {
		if s.Round == round {
			out = append(out, s)
		}
	}
	return out
}

type AllocationCatalog struct {
	Templates []AllocationTemplate
	Digest    string
}

type AllocationTemplate struct {
	ID          string           `json:"id"`
	Category    string           `json:"category"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Total       float64          `json:"total"`
	Unit        string           `json:"unit"`
	Step        float64          `json:"step"`
	Items       []AllocationItem `json:"items"`
}

type AllocationItem struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadDecisions(filepath.Join(configDir, "decisions.json"), &c.Decisions); err != nil {
		return nil, err
	}
	if err := loadEvents(filepath.Join(configDir, "events.json"), &c.Events); err != nil {
		return nil, err
	}
	if err := loadScenarios(filepath.Join(configDir, "scenarios.json"), &c.Scenarios); err != nil {
		return nil, err
	}
	if err := loadAllocations(filepath.Join(configDir, "allocations.json"), &c.Allocations); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadDecisions(path string, out *DecisionCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Templates); err != nil {
		return fmt.Errorf("decisions.json: %w", err)
	}
	out.ByCategory = map[string]DecisionTemplate{}
	for _, t := range out.Templates {
		if t.ID == "" {
			return fmt.Errorf("decisions.json: empty id")
		}
		if _, dup := out.ByCategory[t.Category]; dup {
			return fmt.Errorf("decisions.json: duplicate category %q", t.Category)
		}
		if len(t.Options) == 0 {
			return fmt.Errorf("decisions.json: template %s has no options", t.ID)
		}
		out.ByCategory[t.Category] = t
	}
	for _, cat := range decisions.Categories {
		if _, ok := out.ByCategory[cat]; !ok {
			return fmt.Errorf("decisions.json: missing category %q", cat)
		}
	}
	return nil
}

func loadEvents(path string, out *EventCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Templates); err != nil {
		return fmt.Errorf("events.json: %w", err)
	}
	out.ByID = map[string]events.Template{}
	for _, ev := range out.Templates {
		if ev.ID == "" {
			return fmt.Errorf("events.json: empty id")
		}
		if _, dup := out.ByID[ev.ID]; dup {
			return fmt.Errorf("events.json: duplicate id %q", ev.ID)
		}
		if !events.KnownCategory(ev.Category) {
			return fmt.Errorf("events.json: event %s has unknown category %q", ev.ID, ev.Category)
		}
		if ev.BaseWeight <= 0 {
			return fmt.Errorf("events.json: event %s has non-positive base_weight", ev.ID)
		}
		out.ByID[ev.ID] = ev
	}
	if len(out.Templates) == 0 {
		return fmt.Errorf("events.json: no events")
	}
	return nil
}

func loadScenarios(path string, out *ScenarioCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Scenarios); err != nil {
		return fmt.Errorf("scenarios.json: %w", err)
	}
	out.ByID = map[string]Scenario{}
	for _, s := range out.Scenarios {
		if s.ID == "" {
			return fmt.Errorf("scenarios.json: empty id")
		}
		if s.Round < 1 || s.Round > 4 {
			return fmt.Errorf("scenarios.json: scenario %s has round %d outside 1..4", s.ID, s.Round)
		}
		if len(s.Options) == 0 {
			return fmt.Errorf("scenarios.json: scenario %s has no options", s.ID)
		}
		if _, dup := out.ByID[s.ID]; dup {
			return fmt.Errorf("scenarios.json: duplicate id %q", s.ID)
		}
		out.ByID[s.ID] = s
	}
	return nil
}

func loadAllocations(path string, out *AllocationCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Allocation panels are optional content.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Templates); err != nil {
		return fmt.Errorf("allocations.json: %w", err)
	}
	for _, t := range out.Templates {
		if t.ID == "" {
			return fmt.Errorf("allocations.json: empty id")
		}
		if t.Step <= 0 || t.Total <= 0 {
			return fmt.Errorf("allocations.json: template %s needs positive total and step", t.ID)
		}
	}
	return nil
}
