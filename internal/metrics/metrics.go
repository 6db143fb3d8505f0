// Package metrics exposes registration counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

// Collector implements registration.Observer.
type Collector struct {
	registry          *prometheus.Registry
	sessionsStarted   prometheus.Counter
	sessionsCancelled prometheus.Counter
	stepsCompleted    *prometheus.CounterVec
	validationFailed  *prometheus.CounterVec
	commits           *prometheus.CounterVec
	commitDuration    prometheus.Histogram
	rateLimited       prometheus.Counter
}

var _ registration.Observer = (*Collector)(nil)

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signupbot",
			Name:      "sessions_started_total",
			Help:      "Registration sessions started or restarted.",
		}),
		sessionsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signupbot",
			Name:      "sessions_cancelled_total",
			Help:      "Registration sessions cancelled by the user.",
		}),
		stepsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signupbot",
			Name:      "steps_completed_total",
			Help:      "Steps that accepted user input.",
		}, []string{"step"}),
		validationFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signupbot",
			Name:      "validation_failures_total",
			Help:      "Inputs rejected by step validation.",
		}, []string{"step"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signupbot",
			Name:      "record_commits_total",
			Help:      "Record sink appends by result.",
		}, []string{"result"}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "signupbot",
			Name:      "record_commit_seconds",
			Help:      "Time spent appending a record to the sink.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signupbot",
			Name:      "messages_rate_limited_total",
			Help:      "Inbound messages dropped by the per-chat limiter.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.sessionsStarted,
		c.sessionsCancelled,
		c.stepsCompleted,
		c.validationFailed,
		c.commits,
		c.commitDuration,
		c.rateLimited,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) SessionStarted() {
	c.sessionsStarted.Inc()
}

func (c *Collector) StepCompleted(step registration.Step) {
	c.stepsCompleted.WithLabelValues(step.String()).Inc()
}

func (c *Collector) ValidationFailed(step registration.Step) {
	c.validationFailed.WithLabelValues(step.String()).Inc()
}

func (c *Collector) SessionCancelled() {
	c.sessionsCancelled.Inc()
}

func (c *Collector) RecordCommitted(elapsed time.Duration) {
	c.commits.WithLabelValues("ok").Inc()
	c.commitDuration.Observe(elapsed.Seconds())
}

func (c *Collector) CommitFailed(elapsed time.Duration) {
	c.commits.WithLabelValues("error").Inc()
	c.commitDuration.Observe(elapsed.Seconds())
}

func (c *Collector) MessageRateLimited() {
	c.rateLimited.Inc()
}

// NewRouter serves /metrics and /healthz.
func NewRouter(c *Collector) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	return r
}
