// Package config loads the alertd configuration from a YAML file.
//
// Sections:
//   - server: http_port (default 8080), poll_interval (default 5m), auth
//   - alerts: escalation_policy (intended|literal), skip_level_multiplier
//     (default 5), thresholds {p0,p1,p2}, repeat_intervals {p0,p1,p2}
//   - log: level, retention (default 90 days), flush_path
//   - source: type (synthetic|prometheus|push), seed, prometheus queries
//   - nats: url_env, subject (default "alertd.events")
//
// Load(path) applies Defaults before unmarshalling, then Validate. Threshold
// rows must not increase from P0 down to P2 on either axis.
//
// Watch(ctx, path, onChange) uses fsnotify to report edits. The running
// process keeps the config it started with.
package config
