// Package publish forwards alert events to NATS.
//
// Each event is published as JSON on "<subject>.<kind>", for example
// alertd.events.triggered, so consumers can subscribe to alertd.events.> or
// to a single kind. Publishing is fire-and-forget: the NATS client buffers
// while reconnecting and failures are logged, never returned to the engine.
package publish
