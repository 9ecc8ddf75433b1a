package observability

import (
	"context"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors updated by its hooks.
type Metrics struct {
	Created  prometheus.Counter
	Updates  prometheus.Counter
	Resets   prometheus.Counter
	Saves    *prometheus.CounterVec
	Live     prometheus.Gauge
	StateLen prometheus.Histogram
}

// NewMetrics creates the collectors under namespace (e.g. "panelstate").
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_created_total",
			Help:      "Total number of state entries created",
		}),
		Updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_updates_total",
			Help:      "Total number of partial updates merged into entries",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_resets_total",
			Help:      "Total number of entries reset",
		}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_saves_total",
			Help:      "Total number of notify messages sent, by action and result",
		}, []string{"action", "result"}),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_entries",
			Help:      "Number of live entries",
		}),
		StateLen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "state_leaves",
			Help:      "Number of scalar leaves in an entry state after an update",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Created, m.Updates, m.Resets, m.Saves, m.Live, m.StateLen} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns registry hooks that record into m.
func (m *Metrics) Hooks() registry.Hooks {
	return registry.Hooks{
		OnCreate: func(ctx context.Context, ev *registry.Event) {
			m.Created.Inc()
			m.Live.Inc()
		},
		OnSet: func(ctx context.Context, ev *registry.Event) {
			m.Updates.Inc()
			m.StateLen.Observe(float64(len(domain.Flatten(ev.State, ""))))
		},
		OnReset: func(ctx context.Context, ev *registry.Event) {
			m.Resets.Inc()
			m.Live.Dec()
		},
		OnSave: func(ctx context.Context, ev *registry.Event) {
			result := "ok"
			if ev.Err != nil {
				result = "error"
			}
			m.Saves.WithLabelValues(ev.Action, result).Inc()
		},
	}
}
