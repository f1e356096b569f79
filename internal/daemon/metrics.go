package daemon

import (
	"math"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"statusd/internal/types"
)

// Metrics exports broadcast loop and command relay activity. It implements
// broadcast.Observer.
type Metrics struct {
	registry *prometheus.Registry

	samples     *prometheus.CounterVec
	temperature prometheus.Gauge
	status      *prometheus.GaugeVec
	subscribers prometheus.Gauge
	delivered   prometheus.Counter
	failed      prometheus.Counter
	commands    *prometheus.CounterVec

	mu         sync.Mutex
	lastStatus string
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusd_samples_total",
			Help: "Host status samples taken, by whether they changed the last-known state.",
		}, []string{"changed"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statusd_cpu_temperature_celsius",
			Help: "Last sampled CPU package temperature. NaN when no sensor is readable.",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statusd_status_info",
			Help: "Currently detected activity label, set to 1 for the active label.",
		}, []string{"status"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statusd_subscribers",
			Help: "Currently connected subscribers.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusd_updates_delivered_total",
			Help: "Status updates delivered to subscribers.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusd_updates_failed_total",
			Help: "Status update sends that failed and removed the subscriber.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusd_commands_total",
			Help: "Power commands received, by command and outcome.",
		}, []string{"command", "outcome"}),
	}
	m.temperature.Set(math.NaN())
	registry.MustRegister(
		m.samples,
		m.temperature,
		m.status,
		m.subscribers,
		m.delivered,
		m.failed,
		m.commands,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSample(sample types.StatusSample, changed bool) {
	if m == nil {
		return
	}
	if changed {
		m.samples.WithLabelValues("true").Inc()
	} else {
		m.samples.WithLabelValues("false").Inc()
	}
	if sample.Temperature != nil {
		m.temperature.Set(*sample.Temperature)
	} else {
		m.temperature.Set(math.NaN())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sample.Label == m.lastStatus {
		return
	}
	if m.lastStatus != "" {
		m.status.DeleteLabelValues(m.lastStatus)
	}
	m.status.WithLabelValues(sample.Label).Set(1)
	m.lastStatus = sample.Label
}

func (m *Metrics) ObserveFanOut(delivered, failed int) {
	if m == nil {
		return
	}
	m.delivered.Add(float64(delivered))
	m.failed.Add(float64(failed))
}

func (m *Metrics) ObserveSubscribers(count int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(count))
}

func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}
