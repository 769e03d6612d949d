// Package receiver implements the push metric source: an HTTP endpoint
// (POST /api/v1/samples) that external producers call with one sample at a
// time.
//
// Receiver.ServeHTTP decodes and validates the body, answering 400 for unknown
// fields or out-of-range values and 202 once the sample is stored.
// Receiver.Next hands the newest stored sample to the monitoring loop exactly
// once; ticks with no push in between get source.ErrNoSample and are skipped.
// Authentication is applied upstream by the auth middleware.
package receiver
