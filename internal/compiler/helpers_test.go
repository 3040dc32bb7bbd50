package compiler_test

import (
	"testing"

	"moviescene/internal/compiler"
	"moviescene/internal/evalcontext"
	"moviescene/internal/field"
	"moviescene/internal/metrics"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/templates"
	"moviescene/internal/timerange"
)

type fixture struct {
	arena    *sequence.Arena
	store    *template.EphemeralStore
	compiler *compiler.Compiler
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, opts compiler.Options) *fixture {
	t.Helper()
	f := &fixture{
		arena:   sequence.NewArena(),
		store:   template.NewEphemeralStore(),
		metrics: metrics.New(),
	}
	opts.Metrics = f.metrics
	f.compiler = compiler.New(f.arena, f.store, templates.NewRegistry(nil), opts)
	return f
}

func (f *fixture) sequence(name string) *sequence.Sequence {
	seq := sequence.New(name, timerange.HalfOpen(0, 100))
	f.arena.Add(seq)
	return seq
}

func traceTrack(seq *sequence.Sequence, name string, r timerange.Range) *sequence.Track {
	track := sequence.NewTrack(name, templates.KindTrace)
	track.AddSection(sequence.NewSection(name, r))
	return seq.AddMasterTrack(track)
}

// subTrack nests child in seq over r.
func subTrack(seq *sequence.Sequence, child *sequence.Sequence, name string, r timerange.Range, sub sequence.SubSection) *sequence.Section {
	track := sequence.NewTrack(name, "sub")
	track.Blending = sequence.BlendNone
	section := sequence.NewSection(name, r)
	sub.Sequence = child.Handle()
	section.Sub = &sub
	track.AddSection(section)
	seq.AddMasterTrack(track)
	return section
}

func trackID(t *testing.T, tmpl *template.Template, track *sequence.Track) evalcontext.TrackIdentifier {
	t.Helper()
	id, ok := tmpl.FindTrackBySignature(track.Signature())
	if !ok {
		t.Fatalf("track %s not in template", track.Name)
	}
	return id
}

func evalTracks(g field.Group, block int) []evalcontext.TrackIdentifier {
	var out []evalcontext.TrackIdentifier
	for _, p := range g.EvalPtrs(block) {
		out = append(out, p.TrackID)
	}
	return out
}

func counterValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
