package player_test

import (
	"testing"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/player"
)

func animate(s *player.PreAnimatedStore, key evalcontext.EvaluationKey, mode evalcontext.CompletionMode, obj *player.Object, v float64) {
	s.SetCaptureEntity(key, mode)
	old, had := obj.Property("x")
	s.SaveState(obj, func() {
		if had {
			obj.SetProperty("x", old)
		} else {
			obj.DeleteProperty("x")
		}
	})
	obj.SetProperty("x", v)
}

func x(obj *player.Object) float64 {
	v, _ := obj.Property("x")
	return v
}

func TestRestoreReturnsOriginalState(t *testing.T) {
	s := player.NewPreAnimatedStore(nil)
	obj := player.NewObject("cube", map[string]float64{"x": 1})
	keep := evalcontext.TrackKey(0, 1).AsSection(0)
	restore := evalcontext.TrackKey(0, 2).AsSection(0)

	animate(s, keep, evalcontext.KeepState, obj, 5)
	animate(s, restore, evalcontext.RestoreState, obj, 9)
	if s.Captured(keep) || !s.Captured(restore) {
		t.Fatal("only restoring entities should capture state")
	}

	s.RestorePreAnimatedState(restore)
	if got := x(obj); got != 1 {
		t.Fatalf("x = %v, want the state before any animation", got)
	}
	if s.Restored() != 1 {
		t.Fatalf("restored = %d", s.Restored())
	}
}

func TestRestoreSkipsObjectsHeldElsewhere(t *testing.T) {
	s := player.NewPreAnimatedStore(nil)
	obj := player.NewObject("cube", map[string]float64{"x": 1})
	stale := evalcontext.TrackKey(0, 1).AsSection(0)
	fresh := evalcontext.TrackKey(0, 2).AsSection(0)

	animate(s, stale, evalcontext.RestoreState, obj, 10)
	animate(s, fresh, evalcontext.RestoreState, obj, 20)

	s.RestorePreAnimatedState(stale)
	if got := x(obj); got != 20 {
		t.Fatalf("x = %v, want 20 while another entity animates it", got)
	}
	s.RestorePreAnimatedState(fresh)
	if got := x(obj); got != 1 {
		t.Fatalf("x = %v after last entity completed, want 1", got)
	}
}

func TestRestoreAllRevertsKeptState(t *testing.T) {
	s := player.NewPreAnimatedStore(nil)
	obj := player.NewObject("cube", nil)
	animate(s, evalcontext.TrackKey(0, 1), evalcontext.KeepState, obj, 3)

	s.RestoreAll()
	if _, ok := obj.Property("x"); ok {
		t.Fatal("property added by animation survived RestoreAll")
	}
}

func TestSpawnRegister(t *testing.T) {
	r := player.NewSpawnRegister(nil)
	binding := uuid.New()
	if r.SpawnObject(binding, 1, nil) != nil {
		t.Fatal("undefined binding spawned an object")
	}

	r.Define(binding, "ghost", map[string]float64{"alpha": 0.5})
	a := r.SpawnObject(binding, 1, nil)
	if again := r.SpawnObject(binding, 1, nil); again != a {
		t.Fatal("spawning a live object created another")
	}
	r.SpawnObject(binding, 2, nil)
	if r.Live() != 2 {
		t.Fatalf("live = %d", r.Live())
	}
	obj, ok := r.Object(binding, 1)
	if !ok || !obj.Spawned {
		t.Fatal("spawned object not marked")
	}
	if v, _ := obj.Property("alpha"); v != 0.5 {
		t.Fatalf("alpha = %v", v)
	}

	r.OnSequenceExpired(1, nil)
	if r.Live() != 1 || r.Destroyed() != 1 {
		t.Fatalf("live=%d destroyed=%d", r.Live(), r.Destroyed())
	}
	if _, ok := r.Object(binding, 2); !ok {
		t.Fatal("other sequence's object destroyed")
	}
}

func TestMemoryPrefersSpawnedObjects(t *testing.T) {
	m := player.NewMemory(nil)
	binding := uuid.New()
	static := player.NewObject("static", nil)
	m.Bind(binding, static)
	m.Spawns().Define(binding, "spawned", nil)

	op := evalcontext.NewOperand(3, binding)
	if objs := m.BoundObjects(op); len(objs) != 1 || objs[0] != static {
		t.Fatalf("bound objects = %v", objs)
	}
	spawned := m.Spawns().SpawnObject(binding, 3, m)
	if objs := m.BoundObjects(op); len(objs) != 1 || objs[0] != spawned {
		t.Fatalf("bound objects after spawn = %v", objs)
	}
	if objs := m.BoundObjects(evalcontext.NewOperand(4, binding)); objs[0] != static {
		t.Fatal("spawn leaked into another sequence")
	}
}

func TestMemoryTrace(t *testing.T) {
	m := player.NewMemory(nil)
	m.Trace(player.TraceEntry{Kind: "evaluate", Detail: "a"})
	if len(m.TraceLog()) != 1 {
		t.Fatalf("trace = %v", m.TraceLog())
	}
	m.ResetTrace()
	if len(m.TraceLog()) != 0 {
		t.Fatal("trace not reset")
	}
}
