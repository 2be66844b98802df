// Package otel exposes engine metrics as OpenTelemetry observable
// instruments. A single callback takes one snapshot per collection and
// feeds every counter, latency bucket gauge and the audit drop counter
// from it. The caller owns the MeterProvider.
package otel
