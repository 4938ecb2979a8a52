package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

type Metrics struct {
	EventsCount     Observer
	HandlerFailures Observer
	CommandsCount   Observer
	SentCount       Observer
	SendFailures    Observer
	RosterSize      Observer
	DispatchLatency Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.EventsCount,
		m.HandlerFailures,
		m.CommandsCount,
		m.SentCount,
		m.SendFailures,
		m.RosterSize,
		m.DispatchLatency,
	}
}

// Nop returns metrics that are never exported.
// Useful for tests and for components used without a registry.
func Nop() *Metrics {
	return New("nop")
}

// New creates the bot's metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		EventsCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "dispatch",
					Name:      "events",
					Help:      "Number of inbound events dispatched, by kind.",
				},
				[]string{"kind"},
			),
		),
		HandlerFailures: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "dispatch",
					Name:      "handler_failures",
					Help:      "Number of handlers that returned an error or panicked, by event kind.",
				},
				[]string{"kind"},
			),
		),
		CommandsCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "commands",
					Name:      "invocations",
					Help:      "Number of commands executed, by command name.",
				},
				[]string{"name"},
			),
		),
		SentCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "conn",
					Name:      "sent",
					Help:      "Number of outbound commands written, by kind.",
				},
				[]string{"kind"},
			),
		),
		SendFailures: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "conn",
					Name:      "send_failures",
					Help:      "Number of outbound commands that could not be written.",
				},
			),
		),
		RosterSize: NewPromGauge(
			prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Subsystem: "session",
					Name:      "roster_size",
					Help:      "Number of participants currently known.",
				},
			),
		),
		DispatchLatency: NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
					Namespace: namespace,
					Subsystem: "dispatch",
					Name:      "latency",
					Help:      "How long it takes to run all handlers for one event in seconds",
				},
				[]string{"kind"},
			),
		),
	}
}
