// Package metrics содержит Prometheus-метрики клиента.
// Нулевой указатель *Metrics допустим: все методы тогда ничего не делают.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "redis_client"

type Metrics struct {
	commandDuration *prometheus.HistogramVec
	commandErrors   *prometheus.CounterVec

	poolDials     *prometheus.CounterVec
	poolEvictions *prometheus.CounterVec
	poolExhausted *prometheus.CounterVec

	nodeCPU    *prometheus.GaugeVec
	nodeMemory *prometheus.GaugeVec
}

// New регистрирует метрики в reg. Для глобального реестра
// передайте prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_duration_seconds",
				Help:      "Duration of dispatched commands in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"command"},
		),
		commandErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_errors_total",
				Help:      "Total number of failed commands by error kind",
			},
			[]string{"command", "kind"},
		),
		poolDials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_dials_total",
				Help:      "Number of new connections dialed per node",
			},
			[]string{"address"},
		),
		poolEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_evictions_total",
				Help:      "Number of broken connections evicted from the pool",
			},
			[]string{"address"},
		),
		poolExhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_exhausted_total",
				Help:      "Number of times a wait for a free connection timed out",
			},
			[]string{"address"},
		),
		nodeCPU: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "node_cpu_percent",
				Help:      "CPU usage of a node between two INFO samples",
			},
			[]string{"address"},
		),
		nodeMemory: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "node_used_memory_bytes",
				Help:      "Memory used by a node as reported by INFO",
			},
			[]string{"address"},
		),
	}
}

// ObserveCommand фиксирует длительность команды и, при ошибке, её категорию.
func (it *Metrics) ObserveCommand(command string, started time.Time, errKind string) {
	if it == nil {
		return
	}
	it.commandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
	if errKind != "" {
		it.commandErrors.WithLabelValues(command, errKind).Inc()
	}
}

func (it *Metrics) PoolDial(address string) {
	if it == nil {
		return
	}
	it.poolDials.WithLabelValues(address).Inc()
}

func (it *Metrics) PoolEviction(address string) {
	if it == nil {
		return
	}
	it.poolEvictions.WithLabelValues(address).Inc()
}

func (it *Metrics) PoolExhausted(address string) {
	if it == nil {
		return
	}
	it.poolExhausted.WithLabelValues(address).Inc()
}

func (it *Metrics) NodeCPU(address string, percent float64) {
	if it == nil {
		return
	}
	it.nodeCPU.WithLabelValues(address).Set(percent)
}

func (it *Metrics) NodeMemory(address string, bytes uint64) {
	if it == nil {
		return
	}
	it.nodeMemory.WithLabelValues(address).Set(float64(bytes))
}
