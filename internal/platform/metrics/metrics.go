package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry prometheus.Registerer

	LoginStarted       prometheus.Counter
	LoginCompleted     *prometheus.CounterVec
	BearerAuthFailures *prometheus.CounterVec
	UsersCreated       prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates the application metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registry: reg,
		LoginStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "usergate_login_started_total",
			Help: "Total number of browser logins sent to the OAuth provider",
		}),
		LoginCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usergate_login_completed_total",
			Help: "Total number of OAuth callbacks by outcome",
		}, []string{"outcome"}),
		BearerAuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usergate_bearer_auth_failures_total",
			Help: "Total number of requests rejected by an auth guard",
		}, []string{"reason"}),
		UsersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "usergate_users_created_total",
			Help: "Total number of users created in the system",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "usergate_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.LoginStarted,
		m.LoginCompleted,
		m.BearerAuthFailures,
		m.UsersCreated,
		m.RequestDuration,
	)
	return m
}

// RegisterStateBindings exposes the size of the in-memory state store.
func (m *Metrics) RegisterStateBindings(size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "usergate_state_bindings",
		Help: "Number of pending login state bindings held in memory",
	}, func() float64 { return float64(size()) }))
}

func (m *Metrics) IncrementLoginStarted() {
	m.LoginStarted.Inc()
}

func (m *Metrics) IncrementLoginCompleted(outcome string) {
	m.LoginCompleted.WithLabelValues(outcome).Inc()
}

// IncrementAuthFailure matches the guard failure hook signature.
func (m *Metrics) IncrementAuthFailure(reason string) {
	m.BearerAuthFailures.WithLabelValues(reason).Inc()
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
