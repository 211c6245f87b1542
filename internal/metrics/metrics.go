// Package metrics exposes Prometheus instrumentation for both services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns every collector. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	answers          *prometheus.CounterVec
	advances         prometheus.Counter
	resets           prometheus.Counter
	playersCreated   prometheus.Counter
	published        *prometheus.CounterVec
	dropped          *prometheus.CounterVec
	subscribers      *prometheus.GaugeVec
	httpRequests     *prometheus.CounterVec
	httpRequestTimes *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*settings)

type settings struct {
	namespace string
	registry  *prometheus.Registry
	buckets   []float64
}

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) Option {
	return func(s *settings) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithRegistry registers collectors on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *settings) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithHistogramBuckets overrides the HTTP latency buckets.
func WithHistogramBuckets(b []float64) Option {
	return func(s *settings) {
		if len(b) > 0 {
			s.buckets = b
		}
	}
}

// New creates a Recorder and registers its collectors.
func New(opts ...Option) *Recorder {
	s := settings{namespace: "quiz", buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	r := &Recorder{
		registry: s.registry,
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "answers_total",
			Help: "Submitted answers by outcome.",
		}, []string{"outcome"}),
		advances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "question_advances_total",
			Help: "Question advances across all quizzes.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "score_resets_total",
			Help: "Leaderboards cleared by a fresh game start.",
		}),
		playersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "players_created_total",
			Help: "Registered players.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "notifications_published_total",
			Help: "Published notifications per stream.",
		}, []string{"stream"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "notifications_dropped_total",
			Help: "Notifications dropped for slow subscribers per stream.",
		}, []string{"stream"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace, Name: "subscribers",
			Help: "Live subscribers per stream.",
		}, []string{"stream"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpRequestTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace, Name: "http_request_duration_seconds",
			Help: "HTTP request latency by route.", Buckets: s.buckets,
		}, []string{"route"}),
	}

	s.registry.MustRegister(
		r.answers, r.advances, r.resets, r.playersCreated,
		r.published, r.dropped, r.subscribers,
		r.httpRequests, r.httpRequestTimes,
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) AnswerRecorded(correct bool) {
	if r == nil {
		return
	}
	outcome := "wrong"
	if correct {
		outcome = "correct"
	}
	r.answers.WithLabelValues(outcome).Inc()
}

func (r *Recorder) QuestionAdvanced() {
	if r == nil {
		return
	}
	r.advances.Inc()
}

func (r *Recorder) ScoresReset() {
	if r == nil {
		return
	}
	r.resets.Inc()
}

func (r *Recorder) PlayerCreated() {
	if r == nil {
		return
	}
	r.playersCreated.Inc()
}

// Published implements pubsub.Observer.
func (r *Recorder) Published(stream string, _ int) {
	if r == nil {
		return
	}
	r.published.WithLabelValues(stream).Inc()
}

// Dropped implements pubsub.Observer.
func (r *Recorder) Dropped(stream string) {
	if r == nil {
		return
	}
	r.dropped.WithLabelValues(stream).Inc()
}

// SubscribersChanged implements pubsub.Observer.
func (r *Recorder) SubscribersChanged(stream string, delta int) {
	if r == nil {
		return
	}
	r.subscribers.WithLabelValues(stream).Add(float64(delta))
}

// ObserveHTTP records one served request.
func (r *Recorder) ObserveHTTP(route string, code int, took time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.httpRequestTimes.WithLabelValues(route).Observe(took.Seconds())
}
