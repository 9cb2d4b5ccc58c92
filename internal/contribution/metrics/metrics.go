package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the contribution ledger.
type Metrics struct {
	Initiated      prometheus.Counter
	Confirmed      prometheus.Counter
	ConfirmReplays prometheus.Counter
	Decisions      *prometheus.CounterVec
	AmountRaised   prometheus.Counter
}

// New creates and registers the contribution metrics.
func New() *Metrics {
	return &Metrics{
		Initiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_contributions_initiated_total",
			Help: "Contributions initiated against the payment gateway.",
		}),
		Confirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_contributions_confirmed_total",
			Help: "Contributions whose confirmation applied.",
		}),
		ConfirmReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_contributions_confirm_replays_total",
			Help: "Confirm calls absorbed idempotently.",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "givehub_contribution_decisions_total",
			Help: "Organization decisions on contributions, by outcome.",
		}, []string{"outcome"}),
		AmountRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givehub_contribution_amount_raised_total",
			Help: "Sum of confirmed contribution amounts, in minor units.",
		}),
	}
}

func (m *Metrics) IncInitiated() {
	if m != nil {
		m.Initiated.Inc()
	}
}

func (m *Metrics) ObserveConfirm(applied bool, amount int64) {
	if m == nil {
		return
	}
	if applied {
		m.Confirmed.Inc()
		m.AmountRaised.Add(float64(amount))
	} else {
		m.ConfirmReplays.Inc()
	}
}

func (m *Metrics) IncDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}
