package monitor

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-metrics"

	"waitdie/transaction"
)

// ServiceName prefixes every metric key.
const ServiceName = "waitdie"

// Metrics counts schedule events and tracks lock-table gauges of every run
// it observes. It is safe for concurrent use.
type Metrics struct {
	m *metrics.Metrics
}

func NewMetrics(m *metrics.Metrics) *Metrics {
	return &Metrics{m: m}
}

// NewInmem returns a Metrics observer backed by an in-memory sink.
func NewInmem() (*Metrics, *metrics.InmemSink, error) {
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)

	conf := metrics.DefaultConfig(ServiceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false

	m, err := metrics.New(conf, sink)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating metrics")
	}
	return NewMetrics(m), sink, nil
}

func (o *Metrics) Observe(s transaction.Snapshot) {
	for _, e := range s.Events {
		o.m.IncrCounter([]string{"events", e.Kind.String()}, 1)
	}

	blocked := 0
	for _, tx := range s.Transactions {
		if tx.Blocked {
			blocked++
		}
	}
	o.m.SetGauge([]string{"locks", "held"}, float32(len(s.Locks)))
	o.m.SetGauge([]string{"transactions", "blocked"}, float32(blocked))
	o.m.SetGauge([]string{"round"}, float32(s.Round))
}

// Counter is the total of one counter across the intervals kept by a sink.
type Counter struct {
	Name  string
	Total float64
}

// Counters sums every counter held by sink, sorted by name.
func Counters(sink *metrics.InmemSink) []Counter {
	totals := make(map[string]float64)
	for _, interval := range sink.Data() {
		for name, v := range interval.Counters {
			if v.AggregateSample != nil {
				totals[name] += v.Sum
			}
		}
	}

	counters := make([]Counter, 0, len(totals))
	for name, total := range totals {
		counters = append(counters, Counter{Name: name, Total: total})
	}
	sort.Slice(counters, func(i, j int) bool {
		return counters[i].Name < counters[j].Name
	})
	return counters
}
