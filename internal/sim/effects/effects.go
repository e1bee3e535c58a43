// Package effects merges partial metric-delta maps. Decisions, scenario
// choices and the round's event each contribute a partial map; accumulation
// is a pure fold so the combined result is independent of source order.
package effects

import "github.com/chrisf-bit/store-manager/internal/sim/metrics"

// Accumulate sums any number of partial delta maps into a fresh map. A field
// absent from a part contributes zero. The operation is commutative and
// associative; inputs are never mutated.
func Accumulate(parts ...metrics.Delta) metrics.Delta {
	out := metrics.Delta{}
	for _, p := range parts {
		for field, v := range p {
			out[field] += v
		}
	}
	return out
}
