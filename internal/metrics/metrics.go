package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moviescene/internal/invariant"
)

// Compile modes.
const (
	ModeTime  = "time"
	ModeBatch = "batch"
)

// Metrics holds the registry and every collector.
type Metrics struct {
	registry *prometheus.Registry

	templatesGenerated *prometheus.CounterVec
	cyclesSkipped      prometheus.Counter
	fieldCompiles      *prometheus.CounterVec
	compileDuration    *prometheus.HistogramVec
	fieldInvalidations prometheus.Counter
	fieldCacheHits     prometheus.Counter
	fieldEntries       prometheus.Gauge
	framesEvaluated    prometheus.Counter
	entitiesSetUp      prometheus.Counter
	entitiesTornDown   prometheus.Counter
	sequencesExpired   prometheus.Counter
	tokensApplied      prometheus.Counter
}

// New creates and registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		templatesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moviescene_templates_generated_total",
			Help: "Evaluation templates generated, by sequence name",
		}, []string{"sequence"}),
		cyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_subsequence_cycles_skipped_total",
			Help: "Sub-sequences skipped because they would nest a sequence inside itself",
		}),
		fieldCompiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moviescene_field_compiles_total",
			Help: "Evaluation field entries compiled, by mode",
		}, []string{"mode"}),
		compileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moviescene_field_compile_seconds",
			Help:    "Time spent compiling evaluation field entries",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"mode"}),
		fieldInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_field_invalidations_total",
			Help: "Evaluation field entries removed because their sources changed",
		}),
		fieldCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_field_cache_hits_total",
			Help: "Frames served from an already compiled field entry",
		}),
		fieldEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moviescene_field_entries",
			Help: "Entries in the evaluation field last evaluated",
		}),
		framesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_frames_evaluated_total",
			Help: "Frames evaluated by root instances",
		}),
		entitiesSetUp: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_entities_setup_total",
			Help: "Tracks and sections that began evaluating",
		}),
		entitiesTornDown: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_entities_teardown_total",
			Help: "Tracks and sections that stopped evaluating",
		}),
		sequencesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_sequences_expired_total",
			Help: "Sequence instances that stopped evaluating",
		}),
		tokensApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviescene_tokens_applied_total",
			Help: "Execution tokens applied to the player",
		}),
	}
	violations := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "moviescene_invariant_violations_total",
		Help: "Structural invariant violations reported since start-up",
	}, func() float64 { return float64(invariant.Violations()) })

	m.registry.MustRegister(
		m.templatesGenerated,
		m.cyclesSkipped,
		m.fieldCompiles,
		m.compileDuration,
		m.fieldInvalidations,
		m.fieldCacheHits,
		m.fieldEntries,
		m.framesEvaluated,
		m.entitiesSetUp,
		m.entitiesTornDown,
		m.sequencesExpired,
		m.tokensApplied,
		violations,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TemplateGenerated counts one generation of sequence.
func (m *Metrics) TemplateGenerated(sequence string) {
	if m == nil {
		return
	}
	m.templatesGenerated.WithLabelValues(sequence).Inc()
}

// CycleSkipped counts one sub-sequence cycle.
func (m *Metrics) CycleSkipped() {
	if m == nil {
		return
	}
	m.cyclesSkipped.Inc()
}

// FieldCompiled records n entries compiled in mode taking d.
func (m *Metrics) FieldCompiled(mode string, n int, d time.Duration) {
	if m == nil {
		return
	}
	m.fieldCompiles.WithLabelValues(mode).Add(float64(n))
	m.compileDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// FieldInvalidated counts n removed entries.
func (m *Metrics) FieldInvalidated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fieldInvalidations.Add(float64(n))
}

// FieldCacheHit counts one frame served from the cache.
func (m *Metrics) FieldCacheHit() {
	if m == nil {
		return
	}
	m.fieldCacheHits.Inc()
}

// SetFieldEntries reports the size of the field last evaluated.
func (m *Metrics) SetFieldEntries(n int) {
	if m == nil {
		return
	}
	m.fieldEntries.Set(float64(n))
}

// FrameEvaluated records one frame's entity churn and applied tokens.
func (m *Metrics) FrameEvaluated(setUp, tornDown, expired, tokens int) {
	if m == nil {
		return
	}
	m.framesEvaluated.Inc()
	m.entitiesSetUp.Add(float64(setUp))
	m.entitiesTornDown.Add(float64(tornDown))
	m.sequencesExpired.Add(float64(expired))
	m.tokensApplied.Add(float64(tokens))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
