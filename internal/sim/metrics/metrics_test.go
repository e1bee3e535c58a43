package metrics

import (
	"math"
	"testing"
)

func TestApplyIgnoresUnknownKeys(t *testing.T) {
	m := Baseline(SizeMedium)
	got := Apply(m, Delta{"revenue": 1000, "bogus": 99})
	if got.Revenue != m.Revenue+1000 {
		t.Fatalf("revenue = %v, want %v", got.Revenue, m.Revenue+1000)
	}
	if got.GrossMarginPct != m.GrossMarginPct {
		t.Fatalf("unrelated field changed: %v", got.GrossMarginPct)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	m := Baseline(SizeSmall)
	before := m
	_ = Apply(m, Delta{"footfall": -100})
	if m != before {
		t.Fatalf("input mutated: %#v", m)
	}
}

func TestDiffOmitsNegligibleChanges(t *testing.T) {
	a := Baseline(SizeMedium)
	b := a
	b.Revenue += 250
	b.WastePct += 0.005 // below the 0.01 display threshold
	d := Diff(b, a)
	if d["revenue"] != 250 {
		t.Fatalf("revenue delta = %v", d["revenue"])
	}
	if _, ok := d["wastePct"]; ok {
		t.Fatalf("negligible wastePct change should be omitted, got %v", d["wastePct"])
	}
}

func TestClampRoundsThenLimits(t *testing.T) {
	m := Baseline(SizeMedium)
	m.AvailabilityPct = 103.2
	m.GrossMarginPct = 14.94
	m.QueueTimeMins = -1
	m.Conversion = 0.9876
	m.EngagementScore = 67.5
	got := Clamp(m)

	if got.AvailabilityPct != 99.5 {
		t.Fatalf("availability = %v, want 99.5", got.AvailabilityPct)
	}
	// 14.94 rounds to 14.9 first, then clamps up to the 15 floor.
	if got.GrossMarginPct != 15 {
		t.Fatalf("grossMargin = %v, want 15", got.GrossMarginPct)
	}
	if got.QueueTimeMins != 0.5 {
		t.Fatalf("queue = %v, want 0.5", got.QueueTimeMins)
	}
	if got.Conversion != 0.95 {
		t.Fatalf("conversion = %v, want 0.95", got.Conversion)
	}
	if got.EngagementScore != 68 {
		t.Fatalf("engagement = %v, want 68 (half-up)", got.EngagementScore)
	}
}

func TestClampKeepsEveryFieldInRange(t *testing.T) {
	m := Metrics{}
	got := Clamp(m)
	for _, name := range FieldNames {
		min, max, ok := Range(name)
		if !ok {
			continue
		}
		v, _ := got.Get(name)
		if v < min || v > max {
			t.Fatalf("%s = %v outside [%v,%v]", name, v, min, max)
		}
	}
}

func TestBaselineSizes(t *testing.T) {
	med := Baseline(SizeMedium)
	if med.Revenue != 145000 || med.Footfall != 7200 || med.Conversion != 0.70 {
		t.Fatalf("unexpected medium baseline: %+v", med)
	}
	if Baseline("warehouse") != med {
		t.Fatalf("unknown size should fall back to medium")
	}
	if Baseline(SizeSmall).Revenue != 85000 || Baseline(SizeLarge).Revenue != 220000 {
		t.Fatalf("small/large baselines wrong")
	}
}

func TestRoundToHalfUp(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{2.5, 0, 3},
		{2.449, 1, 2.4},
		{2.45, 1, 2.5},
		{0.7049, 3, 0.705},
	}
	for _, c := range cases {
		if got := RoundTo(c.v, c.decimals); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("RoundTo(%v,%d) = %v, want %v", c.v, c.decimals, got, c.want)
		}
	}
}
