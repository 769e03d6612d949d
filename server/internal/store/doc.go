// Package store holds the in-memory event log: an append-only, time-ordered
// sequence of entries with age-based retention pruning and JSON-lines flush.
package store
