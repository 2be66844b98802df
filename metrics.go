package goCred

import (
	"time"

	internalmetrics "github.com/MrEthical07/goCred/internal/metrics"
)

// MetricID identifies a counter or histogram in the in-process metrics set.
type MetricID uint16

const (
	MetricAuthenticateSuccess MetricID = iota
	MetricAuthenticateFailure
	MetricAuthenticateLocked
	MetricAuthenticateNotFound
	MetricOTPRequest
	MetricOTPVerifySuccess
	MetricOTPVerifyFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricPasswordResetRequest
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricTwoFactorEnable
	MetricTwoFactorDisable
	MetricAccountRegister
	MetricAccountUnlock
	MetricEmailVerificationRequest
	MetricEmailVerificationSuccess
	MetricDeliveryFailure
	MetricRateLimited
	MetricConcurrentRetry
	MetricHashUpgrade
	// MetricAuthenticateLatency is the only histogram.
	MetricAuthenticateLatency
	metricIDCount
)

// MetricIDCount is the number of defined metric IDs.
const MetricIDCount = int(metricIDCount)

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram slices
// hold non-cumulative bucket counts in the 5ms..500ms,+Inf layout.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	// LatencySum is the total observed authenticate latency.
	LatencySum time.Duration
}

func newMetrics(cfg MetricsConfig) *internalmetrics.Set {
	return internalmetrics.New(MetricIDCount, cfg.Enabled, cfg.EnableLatencyHistograms)
}

func snapshotMetrics(m *internalmetrics.Set) MetricsSnapshot {
	if !m.Enabled() {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, MetricIDCount),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricAuthenticateLatency {
			continue
		}
		s.Counters[id] = m.Value(int(id))
	}
	if m.LatencyEnabled() {
		s.Histograms[MetricAuthenticateLatency], s.LatencySum = m.Buckets(int(MetricAuthenticateLatency))
	}
	return s
}
