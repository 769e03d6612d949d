package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthetic_DeterministicWithSeed(t *testing.T) {
	a, b := NewSynthetic(42), NewSynthetic(42)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		sa, err := a.Next(ctx)
		require.NoError(t, err)
		sb, err := b.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, sa, sb, "draw %d", i)
	}
}

func TestSynthetic_SamplesAreValid(t *testing.T) {
	s := NewSynthetic(7)
	ctx := context.Background()

	var total int64
	var spikes int
	const n = 5000
	for i := 0; i < n; i++ {
		sample, err := s.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, sample.Validate())
		total += sample.LatencyMillis
		if sample.LatencyMillis > 1400 {
			spikes++
		}
	}

	// gamma(700,1) has mean 700 and sd ~26; half the draws add 1000–3000ms.
	mean := float64(total) / n
	assert.InDelta(t, 1700, mean, 150, "mean latency")
	assert.InDelta(t, 0.5, float64(spikes)/n, 0.05, "spike ratio")
}

func TestSynthetic_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSynthetic(1).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Factory(t *testing.T) {
	src, err := New(configFor("synthetic"))
	require.NoError(t, err)
	assert.IsType(t, &Synthetic{}, src)

	src, err = New(configFor("prometheus"))
	require.NoError(t, err)
	assert.IsType(t, &Prometheus{}, src)

	_, err = New(configFor("push"))
	assert.Error(t, err)
}
