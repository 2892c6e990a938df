package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons recorded by RegistrationFailures.
const (
	ReasonValidation  = "validation"
	ReasonDuplicate   = "duplicate"
	ReasonUnavailable = "unavailable"
	ReasonInternal    = "internal"
)

// Metrics provides observability for account registration and notifications.
// Each instance owns its registry so services and tests do not collide.
type Metrics struct {
	registry *prometheus.Registry

	AccountsRegistered   prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	RegisterDuration     prometheus.Histogram
	NotificationsCreated prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AccountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelspro_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		RegistrationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reelspro_registration_failures_total",
			Help: "Total number of rejected or failed registrations by reason",
		}, []string{"reason"}),
		RegisterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reelspro_register_duration_seconds",
			Help:    "Duration of registration requests, including password hashing",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		NotificationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelspro_notifications_created_total",
			Help: "Total number of notifications created",
		}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	m.AccountsRegistered.Inc()
}

// IncrementRegistrationFailure records a registration that did not create an account.
func (m *Metrics) IncrementRegistrationFailure(reason string) {
	m.RegistrationFailures.WithLabelValues(reason).Inc()
}

// ObserveRegister records the duration of a registration request.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// IncrementNotificationCreated records a created notification.
func (m *Metrics) IncrementNotificationCreated() {
	m.NotificationsCreated.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
