package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/alertd/pkg/types"
)

// Default values for the alertd configuration.
const (
	DefaultHTTPPort            = 8080
	DefaultPollInterval        = 5 * time.Minute
	DefaultSkipLevelMultiplier = 5
	DefaultRetention           = 90 * 24 * time.Hour
	DefaultPromTimeout         = 10 * time.Second
	DefaultNATSSubject         = "alertd.events"
)

// Escalation policies accepted by alerts.escalation_policy.
const (
	// PolicyIntended escalates when the new severity is strictly more severe.
	PolicyIntended = "intended"
	// PolicyLiteral escalates when the new severity is strictly less severe,
	// matching the positional comparison of the legacy monitor script.
	PolicyLiteral = "literal"
)

// Source types accepted by source.type.
const (
	SourceSynthetic  = "synthetic"
	SourcePrometheus = "prometheus"
	SourcePush       = "push"
)

// Config is the full alertd configuration. It is loaded once at startup and
// never changes for the lifetime of the process.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Alerts AlertsConfig `yaml:"alerts"`
	Log    LogConfig    `yaml:"log"`
	Source SourceConfig `yaml:"source"`
	NATS   NATSConfig   `yaml:"nats"`
}

// ServerConfig holds the process-level settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, /metrics and WebSocket stream listen on.
	HTTPPort int `yaml:"http_port"`

	// PollInterval is the wait between two monitoring ticks (default 5m).
	PollInterval time.Duration `yaml:"poll_interval"`

	// Auth configures how the REST API authenticates clients.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls client authentication on the REST API.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// AlertsConfig holds the classification and notification tables.
type AlertsConfig struct {
	// EscalationPolicy is one of: intended | literal (default intended).
	EscalationPolicy string `yaml:"escalation_policy"`

	// SkipLevelMultiplier scales the repeat interval into the skip-level period.
	SkipLevelMultiplier int `yaml:"skip_level_multiplier"`

	Thresholds      Thresholds      `yaml:"thresholds"`
	RepeatIntervals RepeatIntervals `yaml:"repeat_intervals"`
}

// SkipLevelPeriod returns the skip-level escalation period for sev.
func (a AlertsConfig) SkipLevelPeriod(sev types.Severity) time.Duration {
	return time.Duration(a.SkipLevelMultiplier) * a.RepeatIntervals.For(sev)
}

// Limit is one row of the threshold table. A sample breaches the row when
// either axis is strictly above its limit.
type Limit struct {
	LatencyMillis int64   `yaml:"latency_ms"`
	FailureRate   float64 `yaml:"failure_rate"`
}

// Thresholds maps each tracked severity to its limits.
type Thresholds struct {
	P0 Limit `yaml:"p0"`
	P1 Limit `yaml:"p1"`
	P2 Limit `yaml:"p2"`
}

// For returns the limits for sev. None has no limits and returns the zero Limit.
func (t Thresholds) For(sev types.Severity) Limit {
	switch sev {
	case types.P0:
		return t.P0
	case types.P1:
		return t.P1
	case types.P2:
		return t.P2
	default:
		return Limit{}
	}
}

// RepeatIntervals maps each tracked severity to its re-notification period.
type RepeatIntervals struct {
	P0 time.Duration `yaml:"p0"`
	P1 time.Duration `yaml:"p1"`
	P2 time.Duration `yaml:"p2"`
}

// For returns the repeat interval for sev, or 0 for None.
func (r RepeatIntervals) For(sev types.Severity) time.Duration {
	switch sev {
	case types.P0:
		return r.P0
	case types.P1:
		return r.P1
	case types.P2:
		return r.P2
	default:
		return 0
	}
}

// LogConfig controls slog output and the in-memory event log.
type LogConfig struct {
	// Level is one of: debug | info | warn | error (default info).
	Level string `yaml:"level"`

	// Retention is the maximum age of an event log entry (default 90 days).
	Retention time.Duration `yaml:"retention"`

	// FlushPath, when set, receives the event log as JSON lines on shutdown.
	FlushPath string `yaml:"flush_path"`
}

// SlogLevel maps Level to a slog.Level. Unknown values map to info; validate
// rejects them before this is ever called from main.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SourceConfig selects where metric samples come from.
type SourceConfig struct {
	// Type is one of: synthetic | prometheus | push.
	Type string `yaml:"type"`

	// Seed seeds the synthetic generator. Zero picks a time-based seed.
	Seed int64 `yaml:"seed"`

	Prometheus PrometheusSourceConfig `yaml:"prometheus"`
}

// PrometheusSourceConfig describes the two instant queries that produce a sample.
type PrometheusSourceConfig struct {
	// URL is the base URL of the Prometheus HTTP API (e.g. http://prometheus:9090).
	URL string `yaml:"url"`

	// LatencyQuery must evaluate to a single latency value in milliseconds.
	LatencyQuery string `yaml:"latency_query"`

	// FailureRateQuery must evaluate to a single failure ratio in [0, 1].
	FailureRateQuery string `yaml:"failure_rate_query"`

	// Timeout bounds each query request (default 10s).
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the optional NATS event sink.
type NATSConfig struct {
	// URLEnv is the name of the environment variable holding the NATS URL.
	// An empty name or an unset variable disables the sink.
	URLEnv string `yaml:"url_env"`

	// Subject is the subject events are published on (default "alertd.events").
	Subject string `yaml:"subject"`
}

// URL returns the NATS server URL resolved from the environment.
func (n NATSConfig) URL() string {
	if n.URLEnv == "" {
		return ""
	}
	return os.Getenv(n.URLEnv)
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. The threshold
// and repeat tables are the values the service has always shipped with.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     DefaultHTTPPort,
			PollInterval: DefaultPollInterval,
		},
		Alerts: AlertsConfig{
			EscalationPolicy:    PolicyIntended,
			SkipLevelMultiplier: DefaultSkipLevelMultiplier,
			Thresholds: Thresholds{
				P0: Limit{LatencyMillis: 2000, FailureRate: 0.10},
				P1: Limit{LatencyMillis: 1000, FailureRate: 0.05},
				P2: Limit{LatencyMillis: 500, FailureRate: 0.02},
			},
			RepeatIntervals: RepeatIntervals{
				P0: 2 * time.Hour,
				P1: 12 * time.Hour,
				P2: 48 * time.Hour,
			},
		},
		Log: LogConfig{
			Level:     "info",
			Retention: DefaultRetention,
		},
		Source: SourceConfig{
			Type: SourceSynthetic,
			Prometheus: PrometheusSourceConfig{
				Timeout: DefaultPromTimeout,
			},
		},
		NATS: NATSConfig{
			Subject: DefaultNATSSubject,
		},
	}
}

// Validate checks structural constraints on cfg. A config that fails
// validation must not be used to run the engine.
func Validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.PollInterval <= 0 {
		return fmt.Errorf("server.poll_interval must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}

	if err := cfg.Alerts.Validate(); err != nil {
		return err
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	if cfg.Log.Retention <= 0 {
		return fmt.Errorf("log.retention must be positive")
	}

	switch cfg.Source.Type {
	case SourceSynthetic, SourcePush:
	case SourcePrometheus:
		p := cfg.Source.Prometheus
		if p.URL == "" {
			return fmt.Errorf("source.prometheus.url is required")
		}
		if p.LatencyQuery == "" || p.FailureRateQuery == "" {
			return fmt.Errorf("source.prometheus: latency_query and failure_rate_query are required")
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("source.prometheus.timeout must be positive")
		}
	default:
		return fmt.Errorf("source.type %q unknown: want synthetic|prometheus|push", cfg.Source.Type)
	}

	if cfg.NATS.URLEnv != "" && cfg.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url_env is set")
	}
	return nil
}

// Validate checks the threshold and repeat tables. Limits must not increase
// as severity decreases, so a sample breaching P0 also breaches P1 and P2.
func (a AlertsConfig) Validate() error {
	switch a.EscalationPolicy {
	case PolicyIntended, PolicyLiteral:
	default:
		return fmt.Errorf("alerts.escalation_policy %q unknown: want intended|literal", a.EscalationPolicy)
	}
	if a.SkipLevelMultiplier < 1 {
		return fmt.Errorf("alerts.skip_level_multiplier must be at least 1")
	}

	for _, sev := range types.Tracked {
		l := a.Thresholds.For(sev)
		if l.LatencyMillis < 0 {
			return fmt.Errorf("alerts.thresholds.%s.latency_ms must not be negative", sev)
		}
		if !(l.FailureRate >= 0 && l.FailureRate <= 1) {
			return fmt.Errorf("alerts.thresholds.%s.failure_rate %v is outside [0, 1]", sev, l.FailureRate)
		}
		repeat := a.RepeatIntervals.For(sev)
		if repeat <= 0 {
			return fmt.Errorf("alerts.repeat_intervals.%s must be positive", sev)
		}
		if int64(repeat) > math.MaxInt64/int64(a.SkipLevelMultiplier) {
			return fmt.Errorf("alerts.repeat_intervals.%s %v times skip_level_multiplier %d overflows",
				sev, repeat, a.SkipLevelMultiplier)
		}
	}

	for i := 1; i < len(types.Tracked); i++ {
		hi, lo := types.Tracked[i-1], types.Tracked[i]
		h, l := a.Thresholds.For(hi), a.Thresholds.For(lo)
		if h.LatencyMillis < l.LatencyMillis {
			return fmt.Errorf("alerts.thresholds: %s latency_ms %d is below %s latency_ms %d",
				hi, h.LatencyMillis, lo, l.LatencyMillis)
		}
		if h.FailureRate < l.FailureRate {
			return fmt.Errorf("alerts.thresholds: %s failure_rate %v is below %s failure_rate %v",
				hi, h.FailureRate, lo, l.FailureRate)
		}
	}
	return nil
}
