package otel

import (
	"context"
	"errors"
	"fmt"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is the read side of an engine's metrics.
type Source interface {
	MetricsSnapshot() goCred.MetricsSnapshot
	AuditDropped() uint64
}

// reading is one collection cycle's view of the source.
type reading struct {
	snapshot goCred.MetricsSnapshot
	dropped  uint64
}

type observeFunc func(metric.Observer, reading)

// instruments accumulates observable instruments and the function that
// feeds each one. The first creation error sticks.
type instruments struct {
	meter       metric.Meter
	observables []metric.Observable
	feeds       []observeFunc
	err         error
}

func (in *instruments) counter(name, help string, value func(reading) uint64) {
	if in.err != nil {
		return
	}
	c, err := in.meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		in.err = fmt.Errorf("counter %s: %w", name, err)
		return
	}
	in.observables = append(in.observables, c)
	in.feeds = append(in.feeds, func(o metric.Observer, r reading) {
		o.ObserveInt64(c, int64(value(r)))
	})
}

func (in *instruments) gauge(name, help string, value func(reading) uint64) {
	if in.err != nil {
		return
	}
	g, err := in.meter.Int64ObservableGauge(name, metric.WithDescription(help))
	if err != nil {
		in.err = fmt.Errorf("gauge %s: %w", name, err)
		return
	}
	in.observables = append(in.observables, g)
	in.feeds = append(in.feeds, func(o metric.Observer, r reading) {
		o.ObserveInt64(g, int64(value(r)))
	})
}

func (in *instruments) seconds(name, help string, value func(reading) float64) {
	if in.err != nil {
		return
	}
	g, err := in.meter.Float64ObservableGauge(name, metric.WithDescription(help), metric.WithUnit("s"))
	if err != nil {
		in.err = fmt.Errorf("gauge %s: %w", name, err)
		return
	}
	in.observables = append(in.observables, g)
	in.feeds = append(in.feeds, func(o metric.Observer, r reading) {
		o.ObserveFloat64(g, value(r))
	})
}

// Exporter feeds engine snapshots to a meter on every collection.
type Exporter struct {
	registration metric.Registration
}

// NewExporter registers instruments for engine on meter.
func NewExporter(meter metric.Meter, engine *goCred.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource registers instruments for any Source.
func NewExporterFromSource(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	in := &instruments{meter: meter}
	for _, def := range internaldefs.CounterDefs {
		id := def.ID
		in.counter(def.Name, def.Help, func(r reading) uint64 { return r.snapshot.Counters[id] })
	}
	for _, def := range internaldefs.HistogramDefs {
		id := def.ID
		cumulative := func(r reading) [8]uint64 {
			return internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(r.snapshot.Histograms[id]))
		}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			in.gauge(def.Name+"_bucket_le_"+suffix, "Cumulative latency bucket count.", func(r reading) uint64 {
				return cumulative(r)[i]
			})
		}
		in.gauge(def.Name+"_count", "Latency sample count.", func(r reading) uint64 {
			c := cumulative(r)
			return c[len(c)-1]
		})
		in.seconds(def.Name+"_sum", "Latency sample total.", func(r reading) float64 {
			return r.snapshot.LatencySum.Seconds()
		})
	}
	in.counter(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, func(r reading) uint64 { return r.dropped })
	if in.err != nil {
		return nil, in.err
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		r := reading{snapshot: source.MetricsSnapshot(), dropped: source.AuditDropped()}
		for _, feed := range in.feeds {
			feed(o, r)
		}
		return nil
	}, in.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return &Exporter{registration: registration}, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
