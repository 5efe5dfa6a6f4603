package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadsCreated        prometheus.Counter
	CallsRecorded       *prometheus.CounterVec
	LeadsAssigned       prometheus.Counter
	AuthorizationDenied *prometheus.CounterVec
	LoginAttempts       *prometheus.CounterVec
	ExportsCreated      prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),

		LeadsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads created",
		}),
		CallsRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_calls_recorded_total",
				Help: "Total number of call dispositions recorded",
			},
			[]string{"call_status"},
		),
		LeadsAssigned: f.NewCounter(prometheus.CounterOpts{
			Name: "leads_assigned_total",
			Help: "Total number of leads reassigned through bulk assignment",
		}),
		AuthorizationDenied: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authorization_denied_total",
				Help: "Total number of operations refused by the access policy",
			},
			[]string{"operation"},
		),
		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"}, // success, failed
		),
		ExportsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "exports_created_total",
			Help: "Total number of lead spreadsheet exports",
		}),
	}
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		// route pattern, not the raw path (e.g. /api/leads/:id)
		route := c.Route().Path
		labels := []string{c.Method(), route, strconv.Itoa(status)}

		m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) RecordLeadCreated() {
	if m == nil {
		return
	}
	m.LeadsCreated.Inc()
}

func (m *Metrics) RecordCall(callStatus string) {
	if m == nil {
		return
	}
	m.CallsRecorded.WithLabelValues(callStatus).Inc()
}

func (m *Metrics) RecordLeadsAssigned(n int64) {
	if m == nil {
		return
	}
	m.LeadsAssigned.Add(float64(n))
}

func (m *Metrics) RecordDenied(operation string) {
	if m == nil {
		return
	}
	m.AuthorizationDenied.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordLoginAttempt(success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordExportCreated() {
	if m == nil {
		return
	}
	m.ExportsCreated.Inc()
}
