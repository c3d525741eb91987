// Package metrics records tracker counters and gauges on a private
// Prometheus registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "questkeeper"

// Notification outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type Recorder struct {
	reg *prometheus.Registry

	accountsTotal  prometheus.Gauge
	accountsActive prometheus.Gauge
	timersRunning  prometheus.Gauge

	expiries      prometheus.Counter
	notifications *prometheus.CounterVec
	saves         prometheus.Counter
	loadResets    prometheus.Counter
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		accountsTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts_total",
			Help:      "Number of tracked accounts.",
		}),
		accountsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts_active",
			Help:      "Number of accounts whose cooldown is running.",
		}),
		timersRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timers_running",
			Help:      "Number of live countdown timers.",
		}),
		expiries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_expiries_total",
			Help:      "Total cooldowns that reached zero.",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Ready notifications by outcome (sent, skipped, failed).",
		}, []string{"outcome"}),
		saves: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_saves_total",
			Help:      "Total successful dataset writes.",
		}),
		loadResets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_load_resets_total",
			Help:      "Total loads that found unreadable data and started empty.",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) SetSummary(active, total int) {
	if r == nil {
		return
	}
	r.accountsActive.Set(float64(active))
	r.accountsTotal.Set(float64(total))
}

func (r *Recorder) SetTimersRunning(n int) {
	if r == nil {
		return
	}
	r.timersRunning.Set(float64(n))
}

func (r *Recorder) CooldownExpired() {
	if r == nil {
		return
	}
	r.expiries.Inc()
}

func (r *Recorder) Notification(outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(outcome).Inc()
}

func (r *Recorder) StoreSaved() {
	if r == nil {
		return
	}
	r.saves.Inc()
}

func (r *Recorder) StoreLoadReset() {
	if r == nil {
		return
	}
	r.loadResets.Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
