package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/config"
)

// ErrNoSample is returned by a Source that has nothing new for this tick.
// The monitoring loop skips the tick without logging an error.
var ErrNoSample = errors.New("source: no sample available")

// Source produces one MetricSample per call. A returned sample is not
// validated; the engine rejects out-of-range values itself.
type Source interface {
	Next(ctx context.Context) (types.MetricSample, error)
}

// New returns the Source selected by cfg.Type. The push source is not built
// here because it doubles as an HTTP handler; see package receiver.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case config.SourceSynthetic:
		return NewSynthetic(cfg.Seed), nil
	case config.SourcePrometheus:
		return NewPrometheus(cfg.Prometheus), nil
	default:
		return nil, fmt.Errorf("source: unsupported type %q", cfg.Type)
	}
}
