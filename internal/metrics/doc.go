// Package metrics holds the engine's in-process counters and the single
// authenticate latency histogram. Writes are atomic adds into padded slots
// and never allocate. Histogram buckets run from 5ms to 500ms plus an
// overflow bucket, and a nanosecond sum accompanies them. Metric ids and
// names are owned by the root package; exporters live under metrics/export.
package metrics
