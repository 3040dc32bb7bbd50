package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moviescene/internal/metrics"
)

func counterValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCountersAccumulate(t *testing.T) {
	m := metrics.New()
	m.TemplateGenerated("root")
	m.TemplateGenerated("shot")
	m.FieldCompiled(metrics.ModeTime, 2, time.Millisecond)
	m.FieldInvalidated(3)
	m.FieldInvalidated(0)
	m.FrameEvaluated(4, 1, 1, 9)

	cases := map[string]float64{
		"moviescene_templates_generated_total": 2,
		"moviescene_field_compiles_total":      2,
		"moviescene_field_invalidations_total": 3,
		"moviescene_frames_evaluated_total":    1,
		"moviescene_entities_setup_total":      4,
		"moviescene_entities_teardown_total":   1,
		"moviescene_tokens_applied_total":      9,
	}
	for name, want := range cases {
		if got := counterValue(t, m, name); got != want {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.TemplateGenerated("root")
	m.FieldCompiled(metrics.ModeBatch, 1, time.Second)
	m.FrameEvaluated(1, 1, 1, 1)
	if m.Registry() != nil {
		t.Fatal("nil metrics returned a registry")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	m := metrics.New()
	m.FieldCacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "moviescene_field_cache_hits_total 1") {
		t.Fatalf("exposition missing cache hits:\n%s", body)
	}
}
