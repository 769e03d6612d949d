package source

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
)

// Synthetic distribution parameters.
const (
	latencyShape   = 700.0
	failureShape   = 2.0
	spikeChance    = 0.5
	spikeMinMillis = 1000
	spikeMaxMillis = 3000
)

// Synthetic generates plausible-looking samples for demos and soak tests.
// Latency is gamma(700, 1) milliseconds with a 50% chance of an additional
// 1000–3000ms spike; failure rate is a gamma(2, 1) failure count per hundred.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic returns a generator seeded with seed, or with the current time
// when seed is zero.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

func (s *Synthetic) Next(ctx context.Context) (types.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return types.MetricSample{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	latency := int64(gamma(s.rng, latencyShape))
	if s.rng.Float64() < spikeChance {
		latency += spikeMinMillis + s.rng.Int64N(spikeMaxMillis-spikeMinMillis+1)
	}

	failures := int64(gamma(s.rng, failureShape))
	rate := math.Min(float64(failures)/100, 1)

	return types.MetricSample{LatencyMillis: latency, FailureRate: rate}, nil
}

// gamma draws from Gamma(shape, 1) for shape >= 1 using the Marsaglia–Tsang
// squeeze method.
func gamma(rng *rand.Rand, shape float64) float64 {
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
