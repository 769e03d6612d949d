// Package monitor runs the tick loop: pull a sample, hand it to the alert
// engine, wait for the next poll interval. The wait is the only suspension
// point; cancelling the context ends it, records a shutdown entry and flushes
// the event log.
package monitor
