package compiler_test

import (
	"os"
	"testing"

	"github.com/google/uuid"

	"moviescene/internal/compiler"
	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltree"
	"moviescene/internal/invariant"
	"moviescene/internal/segment"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

func TestMain(m *testing.M) {
	invariant.Strict = true
	os.Exit(m.Run())
}

func TestGenerateKeepsTrackIdentifiers(t *testing.T) {
	f := newFixture(t, compiler.Options{})
	seq := f.sequence("root")
	a := traceTrack(seq, "a", timerange.HalfOpen(0, 10))
	b := traceTrack(seq, "b", timerange.HalfOpen(20, 30))

	tmpl := f.compiler.Access(seq)
	idA, idB := trackID(t, tmpl, a), trackID(t, tmpl, b)

	c := traceTrack(seq, "c", timerange.HalfOpen(40, 50))
	tmpl = f.compiler.Access(seq)
	if trackID(t, tmpl, a) != idA || trackID(t, tmpl, b) != idB {
		t.Fatal("unchanged tracks were given new identifiers")
	}
	idC := trackID(t, tmpl, c)
	if idC == idA || idC == idB {
		t.Fatalf("new track reused identifier %d", idC)
	}

	seq.RemoveTrack(a)
	tmpl = f.compiler.Access(seq)
	if _, ok := tmpl.FindTrackBySignature(a.Signature()); ok {
		t.Fatal("removed track still in template")
	}
	if trackID(t, tmpl, b) != idB {
		t.Fatal("removing a track renumbered another")
	}
}

func TestAccessRegeneratesOnlyWhenStale(t *testing.T) {
	f := newFixture(t, compiler.Options{})
	seq := f.sequence("root")
	traceTrack(seq, "a", timerange.HalfOpen(0, 10))

	f.compiler.Access(seq)
	f.compiler.Access(seq)
	if got := counterValue(t, f.metrics, "moviescene_templates_generated_total"); got != 1 {
		t.Fatalf("generated %v times, want 1", got)
	}

	traceTrack(seq, "b", timerange.HalfOpen(10, 20))
	f.compiler.Access(seq)
	if got := counterValue(t, f.metrics, "moviescene_templates_generated_total"); got != 2 {
		t.Fatalf("generated %v times, want 2", got)
	}
}

func TestRemovingTrackInvalidatesField(t *testing.T) {
	f := newFixture(t, compiler.Options{})
	seq := f.sequence("root")
	a := traceTrack(seq, "a", timerange.HalfOpen(0, 10))
	traceTrack(seq, "b", timerange.HalfOpen(20, 30))

	tmpl := f.compiler.Access(seq)
	f.compiler.CompileTime(tmpl, 5)
	f.compiler.CompileTime(tmpl, 25)
	if tmpl.Field().Len() != 2 {
		t.Fatalf("field has %d entries", tmpl.Field().Len())
	}
	before := tmpl.Field().Signature()

	seq.RemoveTrack(a)
	tmpl = f.compiler.Access(seq)
	if tmpl.Field().GetSegmentFromTime(5) >= 0 {
		t.Fatal("entry over the removed track survived")
	}
	if tmpl.Field().GetSegmentFromTime(25) < 0 {
		t.Fatal("entry unrelated to the removal was dropped")
	}
	if tmpl.Field().Signature() == before {
		t.Fatal("field signature unchanged after invalidation")
	}
}

func TestNestedChangeMakesParentStale(t *testing.T) {
	f := newFixture(t, compiler.Options{})
	child := f.sequence("child")
	section := traceTrack(child, "c", timerange.HalfOpen(0, 10)).Sections()[0]
	root := f.sequence("root")
	subTrack(root, child, "shot", timerange.HalfOpen(100, 110), sequence.SubSection{})

	tmpl := f.compiler.Access(root)
	if tmpl.IsStale(f.arena.Resolve) {
		t.Fatal("fresh template is stale")
	}
	section.MarkAsChanged()
	if !tmpl.IsStale(f.arena.Resolve) {
		t.Fatal("child change did not make parent stale")
	}
	f.compiler.Access(root)
	if tmpl.IsStale(f.arena.Resolve) {
		t.Fatal("parent still stale after access")
	}
}

func TestCyclicNestingIsSkipped(t *testing.T) {
	f := newFixture(t, compiler.Options{})
	a := f.sequence("a")
	b := f.sequence("b")
	traceTrack(b, "inside-b", timerange.HalfOpen(0, 50))
	subTrack(a, b, "a-to-b", timerange.HalfOpen(0, 50), sequence.SubSection{})
	subTrack(b, a, "b-to-a", timerange.HalfOpen(0, 50), sequence.SubSection{})

	tmplA := f.compiler.Access(a)
	if tmplA.Hierarchy().Len() != 1 {
		t.Fatalf("hierarchy of a has %d instances, want 1", tmplA.Hierarchy().Len())
	}
	if got := counterValue(t, f.metrics, "moviescene_subsequence_cycles_skipped_total"); got == 0 {
		t.Fatal("cycle not reported")
	}

	res, _ := f.compiler.CompileTime(tmplA, 10)
	if len(res.Group.EvalPtrs(0)) != 1 {
		t.Fatalf("gathered %v", res.Group.SegmentPtrs)
	}
}

func subSectionIDs(tree *evaltree.Tree[template.SubSectionEntry], at float64) map[evalcontext.SequenceID]segment.Flags {
	out := make(map[evalcontext.SequenceID]segment.Flags)
	for _, e := range tree.IterateFromTime(at).Data() {
		out[e.ID] = e.Flags
	}
	return out
}

func TestProcessSubTrack(t *testing.T) {
	newSubs := func(blending sequence.Blending) (*sequence.Track, *sequence.Section, *sequence.Section) {
		track := sequence.NewTrack("shots", "sub")
		track.Blending = blending
		low := sequence.NewSection("low", timerange.HalfOpen(0, 10))
		low.OverlapPriority = 1
		low.PreRoll = 2
		low.Sub = &sequence.SubSection{}
		high := sequence.NewSection("high", timerange.HalfOpen(5, 15))
		high.OverlapPriority = 2
		high.Sub = &sequence.SubSection{}
		track.AddSection(low)
		track.AddSection(high)
		return track, low, high
	}

	t.Run("unblended", func(t *testing.T) {
		track, low, high := newSubs(sequence.BlendNone)
		tree := evaltree.New[template.SubSectionEntry]()
		ranges := make(map[uuid.UUID][]timerange.Range)
		compiler.ProcessSubTrack(tree, track, ranges)

		lowID := evalcontext.SequenceIDFromGUID(low.ID)
		highID := evalcontext.SequenceIDFromGUID(high.ID)
		got := subSectionIDs(tree, 7)
		if len(got) != 2 || got[lowID] != segment.FlagNone || got[highID] != segment.FlagNone {
			t.Fatalf("entries at 7 = %v", got)
		}
		if got := subSectionIDs(tree, -1); got[lowID] != segment.FlagPreRoll {
			t.Fatalf("entries at -1 = %v", got)
		}
		if len(ranges[low.Signature()]) != 2 {
			t.Fatalf("low ranges = %v", ranges[low.Signature()])
		}
	})

	t.Run("blended", func(t *testing.T) {
		track, low, high := newSubs(sequence.BlendRows)
		tree := evaltree.New[template.SubSectionEntry]()
		ranges := make(map[uuid.UUID][]timerange.Range)
		compiler.ProcessSubTrack(tree, track, ranges)

		lowID := evalcontext.SequenceIDFromGUID(low.ID)
		highID := evalcontext.SequenceIDFromGUID(high.ID)
		if got := subSectionIDs(tree, 7); len(got) != 1 || got[highID] != segment.FlagNone {
			t.Fatalf("entries at 7 = %v", got)
		}
		if got := subSectionIDs(tree, 2); len(got) != 1 {
			t.Fatalf("entries at 2 = %v", got)
		} else if _, ok := got[lowID]; !ok {
			t.Fatalf("entries at 2 = %v", got)
		}
		hr := ranges[high.Signature()]
		if len(hr) != 1 || !hr[0].Equal(timerange.HalfOpen(5, 15)) {
			t.Fatalf("high ranges = %v", hr)
		}
	})
}

func TestBlenders(t *testing.T) {
	cases := []struct {
		blending  sequence.Blending
		wantRows  bool
		wantTrack bool
	}{
		{sequence.BlendRows, true, true},
		{sequence.BlendNearest, true, true},
		{sequence.BlendHighPass, true, true},
		{sequence.BlendStartTime, true, true},
		{sequence.BlendPriority, false, true},
		{sequence.BlendPriorityAllowEmpty, false, true},
		{sequence.BlendNone, false, false},
	}
	for _, tc := range cases {
		rows, track := compiler.Blenders(tc.blending)
		if (rows != nil) != tc.wantRows || (track != nil) != tc.wantTrack {
			t.Fatalf("%s: rows=%v track=%v", tc.blending, rows, track)
		}
	}
	_, nearest := compiler.Blenders(sequence.BlendNearest)
	if !nearest.CanFillEmptySpace() {
		t.Fatal("nearest blending does not fill empty space")
	}
	_, allowEmpty := compiler.Blenders(sequence.BlendPriorityAllowEmpty)
	if !allowEmpty.AllowEmptySegments() {
		t.Fatal("allow-empty blending rejects empty segments")
	}
}
