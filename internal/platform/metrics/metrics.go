package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics for the gateway.
type Metrics struct {
	LoginsTotal     prometheus.Counter
	LoginFailures   prometheus.Counter
	SessionsPurged  prometheus.Counter
	PolicyRedirects *prometheus.CounterVec
	BackendFailures *prometheus.CounterVec
}

// New creates and registers all process-wide Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradedesk_logins_total",
			Help: "Total number of successful console logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradedesk_login_failures_total",
			Help: "Total number of failed console logins",
		}),
		SessionsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradedesk_sessions_purged_total",
			Help: "Total number of sessions purged after credential expiry",
		}),
		PolicyRedirects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tradedesk_policy_redirects_total",
			Help: "Total number of route authorization redirects by target",
		}, []string{"target"}),
		BackendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tradedesk_backend_failures_total",
			Help: "Total number of upstream backend call failures by operation",
		}, []string{"operation"}),
	}
}
