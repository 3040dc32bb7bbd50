package templates_test

import (
	"os"
	"slices"
	"testing"

	"github.com/google/uuid"

	"moviescene/internal/compiler"
	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/invariant"
	"moviescene/internal/player"
	"moviescene/internal/segment"
	"moviescene/internal/sequence"
	"moviescene/internal/templates"
	"moviescene/internal/timerange"
)

func TestMain(m *testing.M) {
	invariant.Strict = true
	os.Exit(m.Run())
}

func TestPropertyValueAt(t *testing.T) {
	p := templates.Property{Name: "x", Keys: []sequence.Key{{Time: 0, Value: 0}, {Time: 10, Value: 100}, {Time: 20, Value: 50}}}
	cases := []struct {
		at   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{2.5, 25},
		{10, 100},
		{15, 75},
		{30, 50},
	}
	for _, tc := range cases {
		got, ok := p.ValueAt(tc.at)
		if !ok || got != tc.want {
			t.Fatalf("ValueAt(%v) = %v, %v; want %v", tc.at, got, ok, tc.want)
		}
	}
	if _, ok := (templates.Property{Name: "x"}).ValueAt(1); ok {
		t.Fatal("empty curve produced a value")
	}
}

func TestPropertyTokenAnimatesAndRestores(t *testing.T) {
	mem := player.NewMemory(nil)
	binding := uuid.New()
	obj := player.NewObject("cube", map[string]float64{"x": 7})
	mem.Bind(binding, obj)

	store := evalcontext.NewPersistentStore()
	tokens := evalcontext.NewExecutionTokens(store)
	op := evalcontext.NewOperand(evalcontext.RootSequenceID, binding)
	key := evalcontext.TrackKey(evalcontext.RootSequenceID, 1).AsSection(0)
	tokens.SetOperand(op)
	tokens.SetScope(evalcontext.Scope{Key: key, Completion: evalcontext.RestoreState})

	p := templates.Property{Name: "x", Keys: []sequence.Key{{Time: 0, Value: 0}, {Time: 10, Value: 10}}, Mode: evalcontext.RestoreState}
	ctx := evalcontext.NewContext(evalcontext.AtTime(4), evalcontext.Playing)
	p.Evaluate(op, ctx, store.Scoped(key.AsTrack(), key), tokens)
	if v, _ := obj.Property("x"); v != 7 {
		t.Fatalf("object changed before flush: %v", v)
	}

	tokens.Apply(mem)
	if v, _ := obj.Property("x"); v != 4 {
		t.Fatalf("x = %v after flush, want 4", v)
	}
	if !mem.States().Captured(key) {
		t.Fatal("restore state not captured")
	}

	mem.PreAnimatedState().RestorePreAnimatedState(key)
	if v, _ := obj.Property("x"); v != 7 {
		t.Fatalf("x = %v after restore, want 7", v)
	}
}

func TestPropertyRestoreDeletesNewProperty(t *testing.T) {
	mem := player.NewMemory(nil)
	binding := uuid.New()
	obj := player.NewObject("cube", nil)
	mem.Bind(binding, obj)

	tokens := evalcontext.NewExecutionTokens(nil)
	key := evalcontext.TrackKey(evalcontext.RootSequenceID, 1).AsSection(0)
	op := evalcontext.NewOperand(evalcontext.RootSequenceID, binding)
	tokens.SetOperand(op)
	tokens.SetScope(evalcontext.Scope{Key: key, Completion: evalcontext.RestoreState})
	templates.Property{Name: "alpha", Keys: []sequence.Key{{Time: 0, Value: 1}}}.
		Evaluate(op, evalcontext.NewContext(evalcontext.AtTime(0), evalcontext.Playing), evalcontext.PersistentData{}, tokens)
	tokens.Apply(mem)

	mem.PreAnimatedState().RestorePreAnimatedState(key)
	if _, ok := obj.Property("alpha"); ok {
		t.Fatal("restored object kept a property it never had")
	}
}

func TestPropertyInterrogate(t *testing.T) {
	p := templates.Property{Name: "y", Keys: []sequence.Key{{Time: 0, Value: 2}, {Time: 2, Value: 4}}}
	got := p.Interrogate(evalcontext.NewContext(evalcontext.AtTime(1), evalcontext.Stopped))
	if got["y"] != 3 {
		t.Fatalf("interrogated %v", got)
	}
}

func eventDetails(entries []player.TraceEntry) []float64 {
	var out []float64
	for _, e := range entries {
		if e.Kind == "event" {
			out = append(out, e.Time)
		}
	}
	return out
}

func TestEventSweptFiresInPlayDirection(t *testing.T) {
	ev := templates.Event{Name: "beat", Events: []sequence.Key{{Time: 1}, {Time: 2}, {Time: 3}, {Time: 8}}}

	cases := []struct {
		name       string
		prev, curr float64
		want       []float64
	}{
		{"forwards", 0, 3, []float64{1, 2, 3}},
		{"excludes previous", 1, 3, []float64{2, 3}},
		{"backwards", 3, 0, []float64{2, 1}},
		{"nothing swept", 4, 7, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := player.NewMemory(nil)
			tokens := evalcontext.NewExecutionTokens(nil)
			ctx := evalcontext.NewContext(evalcontext.Swept(tc.prev, tc.curr), evalcontext.Playing)
			ev.EvaluateSwept(evalcontext.Operand{}, ctx, ctx.Range, evalcontext.PersistentData{}, tokens)
			tokens.Apply(mem)
			if got := eventDetails(mem.TraceLog()); !slices.Equal(got, tc.want) {
				t.Fatalf("fired %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTraceRecordsHooks(t *testing.T) {
	mem := player.NewMemory(nil)
	tr := templates.Trace{Label: "a"}
	tokens := evalcontext.NewExecutionTokens(nil)
	ctx := evalcontext.NewContext(evalcontext.AtTime(5), evalcontext.Playing).WithRoll(true, false)

	tr.Setup(evalcontext.PersistentData{}, mem)
	tr.Initialize(evalcontext.Operand{}, ctx, evalcontext.PersistentData{}, mem)
	tr.Evaluate(evalcontext.Operand{}, ctx, evalcontext.PersistentData{}, tokens)
	if len(mem.TraceLog()) != 2 {
		t.Fatalf("evaluate traced before flush: %v", mem.TraceLog())
	}
	tokens.Apply(mem)
	tr.TearDown(evalcontext.PersistentData{}, mem)

	var kinds []string
	for _, e := range mem.TraceLog() {
		kinds = append(kinds, e.Kind)
	}
	if !slices.Equal(kinds, []string{"setup", "initialize", "evaluate", "teardown"}) {
		t.Fatalf("trace kinds = %v", kinds)
	}
	if e := mem.TraceLog()[2]; e.Time != 5 || !e.PreRoll || e.Detail != "a" {
		t.Fatalf("evaluate entry = %+v", e)
	}
}

func TestSpawnLifecycle(t *testing.T) {
	mem := player.NewMemory(nil)
	binding := uuid.New()
	mem.Spawns().Define(binding, "prop", map[string]float64{"x": 1})

	store := evalcontext.NewPersistentStore()
	tokens := evalcontext.NewExecutionTokens(store)
	f := evaltrack.Frame{
		Operand: evalcontext.NewOperand(evalcontext.RootSequenceID, binding),
		Key:     evalcontext.TrackKey(evalcontext.RootSequenceID, 3),
		Store:   store,
		Tokens:  tokens,
		Player:  mem,
	}
	tokens.SetOperand(f.Operand)
	track := evaltrack.New("spawn")
	spawn := templates.Spawn{}
	spawn.EvaluateTrack(track, segment.New(timerange.HalfOpen(0, 10), segment.Eval(0)), evalcontext.NewContext(evalcontext.AtTime(1), evalcontext.Playing), f)
	tokens.Apply(mem)

	obj, ok := mem.Spawns().Object(binding, evalcontext.RootSequenceID)
	if !ok || !obj.Spawned {
		t.Fatal("object not spawned")
	}
	if got := mem.BoundObjects(f.Operand); len(got) != 1 || got[0] != any(obj) {
		t.Fatalf("bound objects = %v", got)
	}

	spawn.TearDown(f.TrackData(), mem)
	if mem.Spawns().Live() != 0 || mem.Spawns().Destroyed() != 1 {
		t.Fatalf("live=%d destroyed=%d", mem.Spawns().Live(), mem.Spawns().Destroyed())
	}
}

func TestRegistryBuildsStockKinds(t *testing.T) {
	reg := templates.NewRegistry(nil)
	if got := reg.Kinds(); !slices.Equal(got, []string{"event", "property", "spawn", "trace"}) {
		t.Fatalf("kinds = %v", got)
	}

	section := sequence.NewSection("s", timerange.HalfOpen(0, 1))
	section.Property = "x"
	if _, ok := reg.SectionTemplate(compiler.BindingContext{}, sequence.NewTrack("t", templates.KindProperty), section).(templates.Property); !ok {
		t.Fatal("property kind did not build a Property")
	}
	if _, ok := reg.SectionTemplate(compiler.BindingContext{}, sequence.NewTrack("t", templates.KindTrace), section).(templates.Trace); !ok {
		t.Fatal("trace kind did not build a Trace")
	}
	if reg.SectionTemplate(compiler.BindingContext{}, sequence.NewTrack("t", "mystery"), section) != nil {
		t.Fatal("unknown kind built a template")
	}

	spawnTrack := sequence.NewTrack("spawn", templates.KindSpawn)
	if reg.TrackImplementation(compiler.BindingContext{Binding: uuid.New()}, spawnTrack) != nil {
		t.Fatal("spawn implementation for a possessable binding")
	}
	if reg.TrackImplementation(compiler.BindingContext{Binding: uuid.New(), Spawnable: true}, spawnTrack) == nil {
		t.Fatal("no spawn implementation for a spawnable binding")
	}
}
