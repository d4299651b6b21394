package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmit_FullRateAlwaysEmits(t *testing.T) {
	s := New(100)
	s.draw = func() int { t.Fatal("rate 100 must not draw"); return 0 }
	assert.True(t, s.Emit())
}

func TestEmit_RateAbove100AlwaysEmits(t *testing.T) {
	assert.True(t, New(250).Emit())
}

func TestEmit_BoundaryDraws(t *testing.T) {
	s := New(30)

	s.draw = func() int { return 30 }
	assert.True(t, s.Emit(), "draw equal to rate emits")

	s.draw = func() int { return 31 }
	assert.False(t, s.Emit(), "draw above rate is sampled out")

	s.draw = func() int { return 1 }
	assert.True(t, s.Emit())
}

func TestEmit_ApproximatesRate(t *testing.T) {
	const (
		rate = 25
		n    = 100_000
	)
	s := New(rate)

	emitted := 0
	for range n {
		if s.Emit() {
			emitted++
		}
	}

	got := float64(emitted) / float64(n) * 100
	assert.InDelta(t, float64(rate), got, 2.0, "emission rate should track the sample rate")
}
