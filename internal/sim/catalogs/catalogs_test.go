package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadShippedContent(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(c.Decisions.Templates) != 4 {
		t.Fatalf("decision templates = %d, want 4", len(c.Decisions.Templates))
	}
	for _, cat := range []string{"commercial", "labour", "operations", "investment"} {
		dt, ok := c.Decisions.ByCategory[cat]
		if !ok {
			t.Fatalf("missing decision category %q", cat)
		}
		if len(dt.Options) != 4 {
			t.Fatalf("category %q has %d options, want 4", cat, len(dt.Options))
		}
	}
	if !c.Decisions.ByCategory["labour"].HasOption("hold_hours") {
		t.Fatalf("labour template missing hold_hours")
	}
	if c.Decisions.ByCategory["labour"].HasOption("nonsense") {
		t.Fatalf("HasOption accepted an unknown key")
	}

	if len(c.Events.Templates) != 16 {
		t.Fatalf("events = %d, want 16", len(c.Events.Templates))
	}
	perCategory := map[string]int{}
	for _, ev := range c.Events.Templates {
		perCategory[ev.Category]++
		if len(ev.Effects) == 0 {
			t.Fatalf("event %s has no effects", ev.ID)
		}
	}
	for _, cat := range []string{"people", "trading", "operational", "leadership"} {
		if perCategory[cat] != 4 {
			t.Fatalf("category %q has %d events, want 4", cat, perCategory[cat])
		}
	}
	// Authoring order is load order.
	if c.Events.Templates[0].ID != "SICKNESS_SPIKE" {
		t.Fatalf("first event = %s, want SICKNESS_SPIKE", c.Events.Templates[0].ID)
	}
	if ev := c.Events.ByID["POS_OUTAGE"]; ev.Effects["queueTimeMins"] != 4.0 {
		t.Fatalf("POS_OUTAGE queue effect = %v, want 4.0", ev.Effects["queueTimeMins"])
	}

	if len(c.Scenarios.Scenarios) != 16 {
		t.Fatalf("scenarios = %d, want 16", len(c.Scenarios.Scenarios))
	}
	for round := 1; round <= 4; round++ {
		if got := len(c.Scenarios.ForRound(round)); got != 4 {
			t.Fatalf("round %d has %d scenarios, want 4", round, got)
		}
	}
	s, ok := c.Scenarios.ByID["r3_s3"]
	if !ok {
		t.Fatalf("missing scenario r3_s3")
	}
	if len(s.Options) != 4 {
		t.Fatalf("r3_s3 has %d options, want 4", len(s.Options))
	}
	if s.Options[0].Effects["wastePct"] != 1.5 {
		t.Fatalf("r3_s3 option 0 waste effect = %v", s.Options[0].Effects["wastePct"])
	}

	if len(c.Allocations.Templates) != 2 {
		t.Fatalf("allocations = %d, want 2", len(c.Allocations.Templates))
	}
	if c.Allocations.Templates[0].Total != 5000 || c.Allocations.Templates[0].Step != 500 {
		t.Fatalf("budget template total/step = %v/%v", c.Allocations.Templates[0].Total, c.Allocations.Templates[0].Step)
	}

	for _, digest := range []string{c.Decisions.Digest, c.Events.Digest, c.Scenarios.Digest, c.Allocations.Digest} {
		if len(digest) != 64 {
			t.Fatalf("bad digest %q", digest)
		}
	}
}

func TestLoadRejectsBadContent(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Valid but missing the investment category.
	write("decisions.json", `[
		{"id":"a","category":"commercial","title":"t","options":[{"key":"k","label":"l","description":"d"}]},
		{"id":"b","category":"labour","title":"t","options":[{"key":"k","label":"l","description":"d"}]},
		{"id":"c","category":"operations","title":"t","options":[{"key":"k","label":"l","description":"d"}]}
	]`)
	write("events.json", `[{"id":"E1","category":"people","title":"t","description":"d","base_weight":1,"effects":{"revenue":-100}}]`)
	write("scenarios.json", `[]`)

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected missing-category error")
	}

	write("decisions.json", `[
		{"id":"a","category":"commercial","title":"t","options":[{"key":"k","label":"l","description":"d"}]},
		{"id":"b","category":"labour","title":"t","options":[{"key":"k","label":"l","description":"d"}]},
		{"id":"c","category":"operations","title":"t","options":[{"key":"k","label":"l","description":"d"}]},
		{"id":"d","category":"investment","title":"t","options":[{"key":"k","label":"l","description":"d"}]}
	]`)
	if _, err := Load(dir); err != nil {
		t.Fatalf("minimal content should load (allocations optional): %v", err)
	}

	write("events.json", `[{"id":"E1","category":"weird","title":"t","description":"d","base_weight":1,"effects":{"revenue":-100}}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected unknown-category error")
	}

	write("events.json", `[{"id":"E1","category":"people","title":"t","description":"d","base_weight":0,"effects":{"revenue":-100}}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected non-positive weight error")
	}

	write("events.json", `[{"id":"E1","category":"people","title":"t","description":"d","base_weight":1,"effects":{"revenue":-100}}]`)
	write("scenarios.json", `[{"id":"s1","round":5,"category":"people","delivery":"d","title":"t","description":"d","options":[{"label":"l","description":"d","effects":{}}]}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected round-range error")
	}
}
