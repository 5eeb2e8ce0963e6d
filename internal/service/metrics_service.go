package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	assignmentOps   *prometheus.CounterVec
	ruleViolations  *prometheus.CounterVec
	confirmations   *prometheus.CounterVec
	emailsSent      prometheus.Counter
	emailsFailed    prometheus.Counter
}

// NewMetricsService registers the scheduler's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	assignmentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_assignment_operations_total",
		Help: "Schedule mutations by operation",
	}, []string{"operation"})

	ruleViolations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_rule_violations_total",
		Help: "Rejected scheduling proposals by rule code",
	}, []string{"code"})

	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_confirmations_total",
		Help: "Confirmation token resolutions by outcome",
	}, []string{"outcome"})

	emailsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_confirmation_emails_sent_total",
		Help: "Confirmation emails delivered",
	})

	emailsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_confirmation_emails_failed_total",
		Help: "Confirmation emails that failed to send",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, assignmentOps, ruleViolations, confirmations, emailsSent, emailsFailed, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		assignmentOps:   assignmentOps,
		ruleViolations:  ruleViolations,
		confirmations:   confirmations,
		emailsSent:      emailsSent,
		emailsFailed:    emailsFailed,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAssignmentOperation counts a successful create, reschedule or delete.
func (m *MetricsService) RecordAssignmentOperation(operation string) {
	if m == nil {
		return
	}
	m.assignmentOps.WithLabelValues(operation).Inc()
}

// RecordRuleViolation counts a rejected proposal by its rule code.
func (m *MetricsService) RecordRuleViolation(code string) {
	if m == nil {
		return
	}
	m.ruleViolations.WithLabelValues(code).Inc()
}

// RecordConfirmation counts a token resolution by outcome.
func (m *MetricsService) RecordConfirmation(outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(outcome).Inc()
}

// RecordEmail counts a confirmation email delivery attempt.
func (m *MetricsService) RecordEmail(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.emailsSent.Inc()
	} else {
		m.emailsFailed.Inc()
	}
}
