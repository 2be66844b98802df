package metrics

import (
	"sync/atomic"
	"time"
)

const (
	// BucketCount is the number of latency buckets, the last being +Inf.
	BucketCount   = 8
	cacheLineSize = 64
)

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [BucketCount]uint64
	sumNs   uint64
}

// Set is a fixed-size array of counters and latency histograms indexed by
// small integers. The zero value is unusable; call New.
type Set struct {
	enabled    bool
	latency    bool
	counters   []paddedCounter
	histograms []histogram
}

func New(size int, enabled, latency bool) *Set {
	if size < 0 {
		size = 0
	}
	return &Set{
		enabled:    enabled,
		latency:    enabled && latency,
		counters:   make([]paddedCounter, size),
		histograms: make([]histogram, size),
	}
}

func (s *Set) Enabled() bool        { return s != nil && s.enabled }
func (s *Set) LatencyEnabled() bool { return s != nil && s.latency }

func (s *Set) Inc(id int) {
	if s == nil || !s.enabled || id < 0 || id >= len(s.counters) {
		return
	}
	atomic.AddUint64(&s.counters[id].value, 1)
}

func (s *Set) Observe(id int, d time.Duration) {
	if s == nil || !s.latency || id < 0 || id >= len(s.histograms) {
		return
	}
	if d < 0 {
		d = 0
	}
	h := &s.histograms[id]
	atomic.AddUint64(&h.buckets[BucketIndex(d)], 1)
	atomic.AddUint64(&h.sumNs, uint64(d))
}

func (s *Set) Value(id int) uint64 {
	if s == nil || id < 0 || id >= len(s.counters) {
		return 0
	}
	return atomic.LoadUint64(&s.counters[id].value)
}

// Buckets returns non-cumulative bucket counts and the observed sum.
func (s *Set) Buckets(id int) ([]uint64, time.Duration) {
	out := make([]uint64, BucketCount)
	if s == nil || id < 0 || id >= len(s.histograms) {
		return out, 0
	}
	h := &s.histograms[id]
	for i := range out {
		out[i] = atomic.LoadUint64(&h.buckets[i])
	}
	return out, time.Duration(atomic.LoadUint64(&h.sumNs))
}

// BucketIndex maps a duration onto the 5ms..500ms,+Inf bucket layout.
func BucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
