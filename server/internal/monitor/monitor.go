package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/alerts"
	"github.com/obsidianstack/alertd/server/internal/source"
	"github.com/obsidianstack/alertd/server/internal/store"
)

const (
	startMessage    = "Starting Alert Monitoring System..."
	shutdownMessage = "Shutting down system..."
)

// Observer is told about every sample that reaches the engine and every tick
// lost to a source failure.
type Observer interface {
	ObserveSample(types.MetricSample)
	ObserveSourceError()
}

type nopObserver struct{}

func (nopObserver) ObserveSample(types.MetricSample) {}
func (nopObserver) ObserveSourceError()              {}

// Options tune a Loop. The zero value is valid.
type Options struct {
	// FlushPath receives the event log as JSON lines on shutdown. Empty skips
	// the file flush.
	FlushPath string

	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time

	Observer Observer
}

// Loop drives an alerts.Engine from a source.Source at a fixed interval.
type Loop struct {
	engine    *alerts.Engine
	logs      *store.Store
	src       source.Source
	interval  time.Duration
	flushPath string
	now       func() time.Time
	observer  Observer
}

// New creates a Loop that ticks every interval.
func New(engine *alerts.Engine, logs *store.Store, src source.Source, interval time.Duration, opts Options) *Loop {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Loop{
		engine:    engine,
		logs:      logs,
		src:       src,
		interval:  interval,
		flushPath: opts.FlushPath,
		now:       now,
		observer:  observer,
	}
}

// Run ticks immediately, then once per interval, until ctx is cancelled. On
// cancellation it records the shutdown and flushes the event log; the only
// error Run returns is a failed flush.
func (l *Loop) Run(ctx context.Context) error {
	l.engine.Note(l.now(), startMessage)

	t := time.NewTicker(l.interval)
	defer t.Stop()

	for {
		l.tick(ctx)

		select {
		case <-ctx.Done():
			l.engine.Note(l.now(), shutdownMessage)
			return l.flush()
		case <-t.C:
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	sample, err := l.src.Next(ctx)
	switch {
	case err == nil:
	case errors.Is(err, source.ErrNoSample):
		slog.Debug("monitor: no sample this tick")
		return
	case ctx.Err() != nil:
		return
	default:
		slog.Warn("monitor: source failed, skipping tick", "err", err)
		l.observer.ObserveSourceError()
		return
	}

	// The engine records malformed samples itself; observers see valid ones only.
	if sample.Validate() == nil {
		l.observer.ObserveSample(sample)
	}
	events := l.engine.Tick(l.now(), sample)
	slog.Debug("monitor: tick",
		"latency_ms", sample.LatencyMillis,
		"failure_rate", sample.FailureRate,
		"events", len(events),
	)
}

func (l *Loop) flush() error {
	if l.flushPath == "" {
		return nil
	}
	f, err := os.Create(l.flushPath)
	if err != nil {
		return fmt.Errorf("monitor: flush event log: %w", err)
	}
	if err := l.logs.Flush(f); err != nil {
		f.Close()
		return fmt.Errorf("monitor: flush event log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("monitor: flush event log: %w", err)
	}
	slog.Info("monitor: event log flushed", "path", l.flushPath, "entries", l.logs.Len())
	return nil
}
