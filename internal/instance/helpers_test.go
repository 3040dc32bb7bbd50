package instance_test

import (
	"fmt"
	"testing"

	"moviescene/internal/compiler"
	"moviescene/internal/evalcontext"
	"moviescene/internal/instance"
	"moviescene/internal/player"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/templates"
	"moviescene/internal/timerange"
)

type fixture struct {
	arena    *sequence.Arena
	registry *templates.Registry
	compiler *compiler.Compiler
	player   *player.Memory
}

func newFixture(t *testing.T, opts compiler.Options) *fixture {
	t.Helper()
	f := &fixture{
		arena:    sequence.NewArena(),
		registry: templates.NewRegistry(nil),
		player:   player.NewMemory(nil),
	}
	f.compiler = compiler.New(f.arena, template.NewEphemeralStore(), f.registry, opts)
	return f
}

func (f *fixture) sequence(name string) *sequence.Sequence {
	seq := sequence.New(name, timerange.HalfOpen(0, 100))
	f.arena.Add(seq)
	return seq
}

func (f *fixture) instance(t *testing.T, root *sequence.Sequence) *instance.Instance {
	t.Helper()
	inst := instance.New(f.compiler, instance.Options{})
	if !inst.Initialize(root.Handle(), f.player) {
		t.Fatal("root did not resolve")
	}
	return inst
}

// at evaluates inst at t and returns what it traced.
func (f *fixture) at(inst *instance.Instance, t float64, override evalcontext.SequenceID) []string {
	f.player.ResetTrace()
	inst.Evaluate(evalcontext.NewContext(evalcontext.AtTime(t), evalcontext.Playing), f.player, override)
	return f.traced()
}

func (f *fixture) traced() []string {
	var out []string
	for _, e := range f.player.TraceLog() {
		out = append(out, fmt.Sprintf("%s %s", e.Kind, e.Detail))
	}
	return out
}

func traceTrack(seq *sequence.Sequence, name string, r timerange.Range) *sequence.Track {
	track := sequence.NewTrack(name, templates.KindTrace)
	track.AddSection(sequence.NewSection(name, r))
	return seq.AddMasterTrack(track)
}

func subTrack(seq, child *sequence.Sequence, name string, r timerange.Range) *sequence.Section {
	track := sequence.NewTrack(name, "sub")
	track.Blending = sequence.BlendNone
	section := sequence.NewSection(name, r)
	section.Sub = &sequence.SubSection{Sequence: child.Handle()}
	track.AddSection(section)
	seq.AddMasterTrack(track)
	return section
}
