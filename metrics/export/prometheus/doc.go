// Package prometheus exposes engine metrics as a client_golang collector.
//
// [NewExporter] wraps an engine. Register it with any [prometheus.Registerer]
// or mount [Exporter.Handler], which serves a private registry. Counters are
// named gocred_*_total and authenticate latency is exported as the
// gocred_authenticate_latency_seconds histogram.
package prometheus
