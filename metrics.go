package sdp

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sdp"

type metrics struct {
	requests     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	fragments    prometheus.Counter
	openChannels prometheus.Gauge
	reclaimed    prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Number of request PDUs processed.",
		}, []string{"pdu"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "error_responses_total",
			Help:      "Number of ErrorResponse PDUs sent.",
		}, []string{"code"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fragments_total",
			Help:      "Number of response PDUs sent with a continuation state.",
		}),
		openChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_channels",
			Help:      "Number of channels currently open.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reclaimed_continuations_total",
			Help:      "Number of abandoned continuations dropped by Manage.",
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.errors, m.fragments, m.openChannels, m.reclaimed}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("unable to register SDP metrics: %w", err)
		}
	}
	return nil
}

func (m *metrics) request(id PDUID) {
	m.requests.WithLabelValues(id.String()).Inc()
}

func (m *metrics) errorResponse(code ErrorCode) {
	m.errors.WithLabelValues(fmt.Sprintf("0x%04X", uint16(code))).Inc()
}
