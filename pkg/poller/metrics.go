package poller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the poller's operational counters on the standard
// prometheus registry.
type Metrics struct {
	ticksTotal   *prometheus.CounterVec
	tickDuration prometheus.Gauge
	players      *prometheus.GaugeVec
	online       *prometheus.GaugeVec
}

// NewMetrics registers the poller metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meta_poll_ticks_total",
				Help: "Poll ticks by result",
			},
			[]string{"result"},
		),
		tickDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "meta_poll_tick_duration_seconds",
				Help: "Duration of the last poll tick",
			},
		),
		players: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "meta_server_players",
				Help: "Player count from the last poll tick",
			},
			[]string{"server"},
		),
		online: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "meta_server_online",
				Help: "Whether the server answered the last poll (1/0)",
			},
			[]string{"server"},
		),
	}
	prometheus.MustRegister(m.ticksTotal, m.tickDuration, m.players, m.online)
	return m
}

func (m *Metrics) recordTick(ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "aborted"
	}
	m.ticksTotal.WithLabelValues(result).Inc()
	m.tickDuration.Set(seconds)
}

func (m *Metrics) recordServer(id string, players int, isOnline bool) {
	if m == nil {
		return
	}
	m.players.WithLabelValues(id).Set(float64(players))
	if isOnline {
		m.online.WithLabelValues(id).Set(1)
	} else {
		m.online.WithLabelValues(id).Set(0)
	}
}
