package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"
)

const metricsNamespace = "scribe"

// Metrics holds the server collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	logins       *prometheus.CounterVec
	renewals     prometheus.Counter
	guardRejects *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status class.",
		}, []string{"route", "method", "class"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "session_renewals_total",
			Help:      "Session tokens reissued by the guard.",
		}),
		guardRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "guard_rejections_total",
			Help:      "Requests rejected by the session guard, by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "moderation",
			Name:      "events_total",
			Help:      "Dictionary entry lifecycle events.",
		}, []string{"event"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.logins,
		m.renewals,
		m.guardRejects,
		m.transitions,
	)
	return m
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) observeRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// LoginOutcome counts one login attempt.
func (m *Metrics) LoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// SessionRenewed counts one sliding renewal.
func (m *Metrics) SessionRenewed() {
	if m == nil {
		return
	}
	m.renewals.Inc()
}

// GuardRejected counts one guard rejection.
func (m *Metrics) GuardRejected(reason session.TokenReason) {
	if m == nil {
		return
	}
	m.guardRejects.WithLabelValues(reason.String()).Inc()
}

// CountingNotifier counts lifecycle events before handing them to next.
func (m *Metrics) CountingNotifier(next moderation.Notifier) moderation.Notifier {
	return moderation.NotifierFunc(func(ev moderation.Event) {
		if m != nil {
			m.transitions.WithLabelValues(string(ev.Type)).Inc()
		}
		if next != nil {
			next.Publish(ev)
		}
	})
}

// GaugeFunc registers a gauge sampled at scrape time.
func (m *Metrics) GaugeFunc(subsystem, name, help string, fn func() float64) {
	if m == nil || fn == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

// CounterFunc registers a counter sampled at scrape time.
func (m *Metrics) CounterFunc(subsystem, name, help string, fn func() float64) {
	if m == nil || fn == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
