package metrics

import "github.com/prometheus/client_golang/prometheus"

// ActionMetrics counts admin workflow actions by final state.
type ActionMetrics struct {
	transitions *prometheus.CounterVec
}

// NewActionMetrics registers the admin action metrics on the provided registerer.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	if reg == nil {
		return &ActionMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_admin_actions_total",
		Help: "Admin workflow actions by kind and result (success, failed, rejected).",
	}, []string{"action", "result"})
	reg.MustRegister(transitions)
	return &ActionMetrics{transitions: transitions}
}

func (a *ActionMetrics) IncSuccess(action string) {
	a.inc(action, "success")
}

func (a *ActionMetrics) IncFailure(action string) {
	a.inc(action, "failed")
}

// IncRejected counts triggers dropped because the same action was still pending.
func (a *ActionMetrics) IncRejected(action string) {
	a.inc(action, "rejected")
}

func (a *ActionMetrics) inc(action, result string) {
	if a == nil || a.transitions == nil {
		return
	}
	a.transitions.WithLabelValues(normalizeLabel(action), result).Inc()
}
