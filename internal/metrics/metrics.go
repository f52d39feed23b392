// Package metrics exposes Prometheus instrumentation for the scene engine.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeHTTPError   = "http_error"
	OutcomeTransport   = "transport_error"
	OutcomeDecodeError = "decode_error"
	OutcomeThrottled   = "throttled"
)

// Collector bundles the application's metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames           prometheus.Counter
	TextureLookups   *prometheus.CounterVec
	TextureDuration  prometheus.Histogram
	AnalysisRequests *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	Planets          prometheus.Gauge
	StreamClients    prometheus.Gauge
}

// New registers metrics against reg, defaulting to the global registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scene_frames_total",
		Help: "Total number of scene frames produced by the animation driver.",
	}), "scene_frames_total")
	if err != nil {
		return nil, err
	}

	lookups, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "texture_cache_lookups_total",
		Help: "Texture cache lookups, labeled by result (hit or miss).",
	}, []string{"result"}), "texture_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	texDur, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "texture_synthesis_duration_seconds",
		Help:    "Time spent synthesizing one planet surface.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "texture_synthesis_duration_seconds")
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_requests_total",
		Help: "Calls to the analysis endpoint, labeled by outcome.",
	}, []string{"outcome"}), "analysis_requests_total")
	if err != nil {
		return nil, err
	}

	anaDur, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_request_duration_seconds",
		Help:    "Analysis endpoint round-trip latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}), "analysis_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	planets, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "session_planets",
		Help: "Current number of planets in the session.",
	}), "session_planets")
	if err != nil {
		return nil, err
	}

	clients, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stream_clients",
		Help: "Connected frame stream clients.",
	}), "stream_clients")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Frames:           frames,
		TextureLookups:   lookups,
		TextureDuration:  texDur,
		AnalysisRequests: requests,
		AnalysisDuration: anaDur,
		Planets:          planets,
		StreamClients:    clients,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// FrameRendered counts one driver frame.
func (c *Collector) FrameRendered() {
	if c == nil {
		return
	}
	c.Frames.Inc()
}

// TextureCacheHit implements texture.Observer.
func (c *Collector) TextureCacheHit() {
	if c == nil {
		return
	}
	c.TextureLookups.WithLabelValues("hit").Inc()
}

// TextureCacheMiss implements texture.Observer.
func (c *Collector) TextureCacheMiss() {
	if c == nil {
		return
	}
	c.TextureLookups.WithLabelValues("miss").Inc()
}

// TextureSynthesized implements texture.Observer.
func (c *Collector) TextureSynthesized(d time.Duration) {
	if c == nil {
		return
	}
	c.TextureDuration.Observe(d.Seconds())
}

// AnalysisObserved records one analysis call.
func (c *Collector) AnalysisObserved(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.AnalysisRequests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeThrottled {
		c.AnalysisDuration.Observe(d.Seconds())
	}
}

// SessionPlanets implements state.Observer.
func (c *Collector) SessionPlanets(n int) {
	if c == nil {
		return
	}
	c.Planets.Set(float64(n))
}

// StreamClientsChanged sets the connected client gauge.
func (c *Collector) StreamClientsChanged(n int) {
	if c == nil {
		return
	}
	c.StreamClients.Set(float64(n))
}

// register adds col to reg, returning the existing collector when an
// identical one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
