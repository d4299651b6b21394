// Package sampling implements the probabilistic gate over event
// emission.
package sampling

import "math/rand/v2"

// Sampler decides once per invocation whether an event is emitted at
// all. Rate is a percentage in [1,100]; rates at or above 100 always
// emit.
//
// Draws come from the process-global math/rand/v2 source, which is
// seeded from OS entropy at process start. Each hook invocation is its
// own process, so back-to-back invocations draw independently without
// any seed derived from the payload.
type Sampler struct {
	rate int
	draw func() int // uniform in [1,100]
}

// New returns a Sampler for the given percentage rate.
func New(rate int) *Sampler {
	return &Sampler{
		rate: rate,
		draw: func() int { return rand.IntN(100) + 1 },
	}
}

// Emit reports whether this invocation's event passes the gate.
func (s *Sampler) Emit() bool {
	if s.rate >= 100 {
		return true
	}
	return s.draw() <= s.rate
}
