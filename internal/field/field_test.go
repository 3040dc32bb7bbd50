package field_test

import (
	"os"
	"slices"
	"testing"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/field"
	"moviescene/internal/hierarchy"
	"moviescene/internal/invariant"
	"moviescene/internal/timerange"
)

func TestMain(m *testing.M) {
	invariant.Strict = true
	os.Exit(m.Run())
}

func ptr(track evalcontext.TrackIdentifier) field.SegmentPtr {
	return field.SegmentPtr{SequenceID: evalcontext.RootSequenceID, TrackID: track, SegmentID: 1}
}

func assertNoOverlap(t *testing.T, f *field.Field) {
	t.Helper()
	for i := 1; i < f.Len(); i++ {
		a, b := f.Range(i-1), f.Range(i)
		if a.Overlaps(b) {
			t.Fatalf("entries %d %s and %d %s overlap", i-1, a, i, b)
		}
		if timerange.CompareLower(a.Lower, b.Lower) >= 0 {
			t.Fatalf("entries %d and %d out of order", i-1, i)
		}
	}
}

func TestInsertClipsAgainstNeighbours(t *testing.T) {
	var f field.Field
	f.Insert(10, timerange.HalfOpen(10, 20), field.Group{}, field.Metadata{})
	f.Insert(40, timerange.HalfOpen(40, 50), field.Group{}, field.Metadata{})

	idx := f.Insert(30, timerange.HalfOpen(15, 45), field.Group{}, field.Metadata{})
	if idx != 1 {
		t.Fatalf("insert index = %d, want 1", idx)
	}
	if got := f.Range(1); !got.Equal(timerange.HalfOpen(20, 40)) {
		t.Fatalf("clipped range = %s", got)
	}
	assertNoOverlap(t, &f)

	if idx := f.Insert(12, timerange.HalfOpen(12, 18), field.Group{}, field.Metadata{}); idx != -1 {
		t.Fatalf("covered insert returned %d", idx)
	}
	if f.Len() != 3 {
		t.Fatalf("len = %d", f.Len())
	}
}

func TestInsertKeepsInsertTime(t *testing.T) {
	var f field.Field
	f.Insert(10, timerange.HalfOpen(10, 20), field.Group{}, field.Metadata{})

	tests := []struct {
		name string
		at   float64
		r    timerange.Range
	}{
		{name: "time already covered", at: 12, r: timerange.HalfOpen(12, 30)},
		{name: "range misses time", at: 25, r: timerange.HalfOpen(30, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if idx := f.Insert(tt.at, tt.r, field.Group{}, field.Metadata{}); idx != -1 {
				t.Fatalf("insert returned %d, entry %s", idx, f.Range(idx))
			}
			if f.Len() != 1 {
				t.Fatalf("len = %d", f.Len())
			}
		})
	}

	if idx := f.Insert(25, timerange.HalfOpen(15, 30), field.Group{}, field.Metadata{}); idx != 1 {
		t.Fatalf("insert index = %d, want 1", idx)
	}
	if got := f.Range(1); !got.Equal(timerange.HalfOpen(20, 30)) || !got.Contains(25) {
		t.Fatalf("clipped range = %s", got)
	}
}

func TestInsertRandomOrderNeverOverlaps(t *testing.T) {
	var f field.Field
	inserts := []struct {
		at float64
		r  timerange.Range
	}{
		{5, timerange.Closed(5, 8)},
		{0, timerange.HalfOpen(0, 100)},
		{-1, timerange.LessThan(3)},
		{90, timerange.AtLeast(90)},
		{50, timerange.Point(50)},
		{2, timerange.HalfOpen(2, 6)},
	}
	for _, in := range inserts {
		f.Insert(in.at, in.r, field.Group{}, field.Metadata{})
		assertNoOverlap(t, &f)
	}
	for _, at := range []float64{-10, 2.5, 5, 8, 50, 95} {
		if f.GetSegmentFromTime(at) < 0 {
			t.Fatalf("time %v not covered", at)
		}
	}
}

func TestGetSegmentFromTime(t *testing.T) {
	var f field.Field
	f.Add(timerange.HalfOpen(0, 10), field.Group{}, field.Metadata{})
	f.Add(timerange.Closed(10, 20), field.Group{}, field.Metadata{})
	f.Add(timerange.AtLeast(30), field.Group{}, field.Metadata{})

	cases := []struct {
		time float64
		want int
	}{
		{-1, -1},
		{0, 0},
		{9.99, 0},
		{10, 1},
		{20, 1},
		{25, -1},
		{30, 2},
		{1e12, 2},
	}
	for _, tc := range cases {
		if got := f.GetSegmentFromTime(tc.time); got != tc.want {
			t.Fatalf("GetSegmentFromTime(%v) = %d, want %d", tc.time, got, tc.want)
		}
	}
}

func TestAddOutOfOrderPanicsInStrictMode(t *testing.T) {
	var f field.Field
	f.Add(timerange.HalfOpen(10, 20), field.Group{}, field.Metadata{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	f.Add(timerange.HalfOpen(0, 5), field.Group{}, field.Metadata{})
}

func TestInvalidateChangesSignature(t *testing.T) {
	var f field.Field
	f.Add(timerange.HalfOpen(0, 10), field.Group{}, field.Metadata{})
	f.Add(timerange.HalfOpen(10, 20), field.Group{}, field.Metadata{})
	f.Add(timerange.HalfOpen(20, 30), field.Group{}, field.Metadata{})
	sig := f.Signature()

	if n := f.Invalidate(timerange.Point(15)); n != 1 {
		t.Fatalf("removed %d entries", n)
	}
	if f.Signature() == sig {
		t.Fatal("signature unchanged after invalidation")
	}
	if f.GetSegmentFromTime(15) != -1 || f.GetSegmentFromTime(25) != 1 {
		t.Fatal("wrong entries remain")
	}

	sig = f.Signature()
	if n := f.Invalidate(timerange.HalfOpen(100, 200)); n != 0 || f.Signature() != sig {
		t.Fatal("no-op invalidation changed the field")
	}
}

func TestGroupBuilderLayout(t *testing.T) {
	var b field.GroupBuilder
	b.AddBlock("spawn", []field.SegmentPtr{ptr(1)}, []field.SegmentPtr{ptr(1), ptr(2)})
	b.AddBlock("empty", nil, nil)
	b.AddBlock("", nil, []field.SegmentPtr{ptr(3)})
	g := b.Group()

	if len(g.LUTIndices) != 2 {
		t.Fatalf("blocks = %d", len(g.LUTIndices))
	}
	if !slices.Equal(g.InitPtrs(0), []field.SegmentPtr{ptr(1)}) {
		t.Fatalf("init ptrs = %v", g.InitPtrs(0))
	}
	if !slices.Equal(g.EvalPtrs(0), []field.SegmentPtr{ptr(1), ptr(2)}) {
		t.Fatalf("eval ptrs = %v", g.EvalPtrs(0))
	}
	if !slices.Equal(g.EvalPtrs(1), []field.SegmentPtr{ptr(3)}) || len(g.InitPtrs(1)) != 0 {
		t.Fatalf("second block = %v / %v", g.InitPtrs(1), g.EvalPtrs(1))
	}
}

func ordered(seq evalcontext.SequenceID, track evalcontext.TrackIdentifier, index uint32) evalcontext.OrderedKey {
	return evalcontext.OrderedKey{Key: evalcontext.TrackKey(seq, track), EvaluationIndex: index}
}

func TestDiffEntitiesOrdersByEvaluation(t *testing.T) {
	last := field.Metadata{ActiveEntities: []evalcontext.OrderedKey{
		ordered(0, 1, 0), ordered(0, 2, 2), ordered(0, 3, 1),
	}}
	current := field.Metadata{ActiveEntities: []evalcontext.OrderedKey{
		ordered(0, 1, 0), ordered(0, 4, 5), ordered(0, 5, 3),
	}}
	current.Normalize()
	last.Normalize()

	added, expired := current.DiffEntities(last)
	if !slices.Equal(added, []evalcontext.OrderedKey{ordered(0, 5, 3), ordered(0, 4, 5)}) {
		t.Fatalf("added = %v", added)
	}
	if !slices.Equal(expired, []evalcontext.OrderedKey{ordered(0, 2, 2), ordered(0, 3, 1)}) {
		t.Fatalf("expired = %v", expired)
	}
}

func TestDiffSequences(t *testing.T) {
	last := field.Metadata{ActiveSequences: []evalcontext.SequenceID{0, 3, 7}}
	current := field.Metadata{ActiveSequences: []evalcontext.SequenceID{0, 5, 7, 9}}

	added, expired := current.DiffSequences(last)
	if !slices.Equal(added, []evalcontext.SequenceID{5, 9}) {
		t.Fatalf("added = %v", added)
	}
	if !slices.Equal(expired, []evalcontext.SequenceID{3}) {
		t.Fatalf("expired = %v", expired)
	}
	if a, e := current.DiffSequences(current); len(a) != 0 || len(e) != 0 {
		t.Fatalf("self diff = %v %v", a, e)
	}
}

func TestNormalizeKeepsLowestIndex(t *testing.T) {
	m := field.Metadata{
		ActiveSequences: []evalcontext.SequenceID{4, 1, 4},
		ActiveEntities:  []evalcontext.OrderedKey{ordered(0, 2, 7), ordered(0, 1, 3), ordered(0, 2, 1)},
	}
	m.Normalize()
	if !slices.Equal(m.ActiveSequences, []evalcontext.SequenceID{1, 4}) {
		t.Fatalf("sequences = %v", m.ActiveSequences)
	}
	if !slices.Equal(m.ActiveEntities, []evalcontext.OrderedKey{ordered(0, 1, 3), ordered(0, 2, 1)}) {
		t.Fatalf("entities = %v", m.ActiveEntities)
	}
}

func TestIsDirty(t *testing.T) {
	sigA, sigB := uuid.New(), uuid.New()
	m := field.Metadata{SubTemplateSignatures: map[evalcontext.SequenceID]uuid.UUID{10: sigA, 20: sigB}}

	live := map[evalcontext.SequenceID]uuid.UUID{10: sigA, 20: sigB}
	ranges := map[evalcontext.SequenceID]timerange.Range{
		10: timerange.HalfOpen(0, 10),
		20: timerange.HalfOpen(50, 60),
	}
	lookup := func(id evalcontext.SequenceID) (uuid.UUID, timerange.Range, bool) {
		sig, ok := live[id]
		return sig, ranges[id], ok
	}

	if dirty, _ := m.IsDirty(lookup); dirty {
		t.Fatal("clean metadata reported dirty")
	}

	live[20] = uuid.New()
	dirty, r := m.IsDirty(lookup)
	if !dirty || !r.Equal(timerange.HalfOpen(50, 60)) {
		t.Fatalf("dirty=%v range=%s", dirty, r)
	}

	delete(live, 10)
	dirty, r = m.IsDirty(lookup)
	if !dirty || !r.Equal(timerange.All()) {
		t.Fatalf("removed instance: dirty=%v range=%s", dirty, r)
	}
}

func TestRemapSequenceIDsForRoot(t *testing.T) {
	override := evalcontext.SequenceID(77)
	child := evalcontext.SequenceID(5)
	grandchild := evalcontext.SequenceID(9).Accumulate(child)

	local := hierarchy.New()
	local.Add(hierarchy.SubSequenceData{DeterministicID: child}, child, evalcontext.RootSequenceID)
	local.Add(hierarchy.SubSequenceData{DeterministicID: 9}, grandchild, child)

	sig := uuid.New()
	m := field.Metadata{
		ActiveSequences:       []evalcontext.SequenceID{evalcontext.RootSequenceID, child, grandchild},
		ActiveEntities:        []evalcontext.OrderedKey{ordered(evalcontext.RootSequenceID, 1, 0)},
		SubTemplateSignatures: map[evalcontext.SequenceID]uuid.UUID{grandchild: sig},
	}
	m.RemapSequenceIDsForRoot(override, local)

	absChild := child.Accumulate(override)
	absGrandchild := evalcontext.SequenceID(9).Accumulate(absChild)
	want := []evalcontext.SequenceID{override, absChild, absGrandchild}
	slices.Sort(want)
	if !slices.Equal(m.ActiveSequences, want) {
		t.Fatalf("sequences = %v, want %v", m.ActiveSequences, want)
	}
	if m.ActiveEntities[0].Key.SequenceID != override {
		t.Fatalf("entity sequence = %v", m.ActiveEntities[0].Key.SequenceID)
	}
	if m.SubTemplateSignatures[absGrandchild] != sig {
		t.Fatal("signature not remapped")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	var f field.Field
	var b field.GroupBuilder
	b.AddBlock("", nil, []field.SegmentPtr{ptr(1)})
	f.Add(timerange.HalfOpen(0, 10), b.Group(), field.Metadata{ActiveSequences: []evalcontext.SequenceID{0}})
	snap := f.Snapshot()

	f.Invalidate(timerange.All())
	if f.Len() != 0 {
		t.Fatal("invalidate all left entries")
	}

	var restored field.Field
	restored.Restore(snap)
	if restored.Len() != 1 || restored.Signature() != snap.Signature {
		t.Fatalf("restored len=%d", restored.Len())
	}
	if !slices.Equal(restored.Group(0).SegmentPtrs, []field.SegmentPtr{ptr(1)}) {
		t.Fatal("group not restored")
	}
}
