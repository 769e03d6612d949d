// Package types defines the Go types shared by every alertd package: the
// ordered Severity enumeration and the MetricSample produced by metric sources.
package types
