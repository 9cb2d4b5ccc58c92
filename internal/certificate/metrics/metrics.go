package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the certificate issuer.
type Metrics struct {
	Issued    *prometheus.CounterVec
	Reissued  prometheus.Counter
	Revoked   prometheus.Counter
	Delivered prometheus.Counter
}

// New creates and registers the certificate metrics.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "givehub_certificates_issued_total",
			Help: "Certificates issued, by source channel.",
		}, []string{"channel"}),
		Reissued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_certificates_idempotent_hits_total",
			Help: "Issue calls that returned an existing active certificate.",
		}),
		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_certificates_revoked_total",
			Help: "Certificates revoked by an admin.",
		}),
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_certificates_delivered_total",
			Help: "Certificate download-data requests that stamped delivery.",
		}),
	}
}

func (m *Metrics) IncIssued(channel string) {
	if m != nil {
		m.Issued.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncReissued() {
	if m != nil {
		m.Reissued.Inc()
	}
}

func (m *Metrics) IncRevoked() {
	if m != nil {
		m.Revoked.Inc()
	}
}

func (m *Metrics) IncDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}
