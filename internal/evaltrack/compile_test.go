package evaltrack_test

import (
	"os"
	"slices"
	"testing"

	"moviescene/internal/evaltrack"
	"moviescene/internal/invariant"
	"moviescene/internal/segment"
	"moviescene/internal/timerange"
)

func TestMain(m *testing.M) {
	invariant.Strict = true
	os.Exit(m.Run())
}

type wantSegment struct {
	r     timerange.Range
	impls []segment.SectionEvaluationData
}

func assertSegments(t *testing.T, track *evaltrack.Track, want []wantSegment) {
	t.Helper()
	track.CompileAll()
	got := track.SortedSegments()
	if len(got) != len(want) {
		t.Fatalf("got %d segments %v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if !got[i].Range.Equal(w.r) {
			t.Fatalf("segment %d range = %s, want %s", i, got[i].Range, w.r)
		}
		if !slices.Equal(got[i].Impls, w.impls) {
			t.Fatalf("segment %d %s impls = %v, want %v", i, w.r, got[i].Impls, w.impls)
		}
	}
}

func evals(impls ...int) []segment.SectionEvaluationData {
	out := make([]segment.SectionEvaluationData, len(impls))
	for i, impl := range impls {
		out[i] = segment.Eval(impl)
	}
	return out
}

var (
	negInf = timerange.OpenBound()
	posInf = timerange.OpenBound()
	incl   = timerange.InclusiveBound
	excl   = timerange.ExclusiveBound
	rng    = timerange.New
)

func TestCompileBasicPriorityLayout(t *testing.T) {
	track := evaltrack.New("basic")
	track.TrackBlender = segment.SortByPriorityBlender{}
	track.AddTreeData(timerange.HalfOpen(10, 20), segment.Eval(0))
	track.AddTreeData(timerange.HalfOpen(20, 30), segment.Eval(1))
	track.AddTreeData(timerange.HalfOpen(10, 30), segment.Eval(2))
	track.AddTreeData(timerange.LessThan(20), segment.Eval(3))
	track.AddTreeData(timerange.AtLeast(25), segment.Eval(4))

	assertSegments(t, track, []wantSegment{
		{timerange.LessThan(10), evals(3)},
		{timerange.HalfOpen(10, 20), evals(0, 2, 3)},
		{timerange.HalfOpen(20, 25), evals(1, 2)},
		{timerange.HalfOpen(25, 30), evals(1, 2, 4)},
		{timerange.AtLeast(30), evals(4)},
	})
}

func TestCompileEmptySpaceLayout(t *testing.T) {
	track := evaltrack.New("empty")
	track.TrackBlender = segment.SortByPriorityBlender{EmptySpacePolicy: segment.EmptySpacePolicy{AllowEmpty: true}}
	track.AddTreeData(timerange.HalfOpen(10, 20), segment.Eval(0))
	track.AddTreeData(timerange.HalfOpen(30, 40), segment.Eval(1))

	assertSegments(t, track, []wantSegment{
		{timerange.LessThan(10), nil},
		{timerange.HalfOpen(10, 20), evals(0)},
		{timerange.HalfOpen(20, 30), nil},
		{timerange.HalfOpen(30, 40), evals(1)},
		{timerange.AtLeast(40), nil},
	})
	for _, s := range track.SortedSegments() {
		if len(s.Impls) == 0 && !s.AllowEmpty {
			t.Fatalf("empty segment %s not flagged allow-empty", s.Range)
		}
	}
}

func TestCompileNearestSectionLayout(t *testing.T) {
	track := evaltrack.New("nearest")
	track.TrackBlender = segment.SortByRowBlender{EvaluateNearest: true}
	track.AddSection(evaltrack.Section{Name: "a"})
	track.AddSection(evaltrack.Section{Name: "b"})
	track.AddTreeData(timerange.HalfOpen(10, 20), segment.Eval(0))
	track.AddTreeData(timerange.HalfOpen(30, 40), segment.Eval(1))

	assertSegments(t, track, []wantSegment{
		{timerange.LessThan(10), []segment.SectionEvaluationData{segment.EvalForced(0, 10)}},
		{timerange.HalfOpen(10, 20), evals(0)},
		{timerange.HalfOpen(20, 30), []segment.SectionEvaluationData{segment.EvalForced(0, 20)}},
		{timerange.HalfOpen(30, 40), evals(1)},
		{timerange.AtLeast(40), []segment.SectionEvaluationData{segment.EvalForced(1, 40)}},
	})
}

func TestCompileAddUniqueKeepsDistinctFlags(t *testing.T) {
	track := evaltrack.New("custom")
	track.TrackBlender = segment.SortByPriorityBlender{}
	track.AddTreeDataUnique(timerange.HalfOpen(10, 20), segment.EvalFlagged(0, segment.FlagPreRoll))
	track.AddTreeDataUnique(timerange.HalfOpen(15, 25), segment.Eval(0))
	track.AddTreeDataUnique(timerange.HalfOpen(20, 30), segment.Eval(0))
	track.AddTreeDataUnique(timerange.HalfOpen(30, 40), segment.Eval(0))

	preRoll := segment.EvalFlagged(0, segment.FlagPreRoll)
	cases := []struct {
		time float64
		want []segment.SectionEvaluationData
	}{
		{12.5, []segment.SectionEvaluationData{preRoll}},
		{17.5, []segment.SectionEvaluationData{preRoll, segment.Eval(0)}},
		{22.5, evals(0)},
		{27.5, evals(0)},
		{30, evals(0)},
	}
	for _, tc := range cases {
		seg, ok := track.Segment(track.GetSegmentFromTime(tc.time))
		if !ok {
			t.Fatalf("no segment at %v", tc.time)
		}
		if !slices.Equal(seg.Impls, tc.want) {
			t.Fatalf("segment at %v = %v, want %v", tc.time, seg.Impls, tc.want)
		}
	}
}

type sectionSpec struct {
	r        timerange.Range
	row      int
	priority int
}

func sectionTrack(specs []sectionSpec, blender segment.TrackBlender) *evaltrack.Track {
	track := evaltrack.New("sections")
	track.TrackBlender = blender
	for _, s := range specs {
		impl := track.AddSection(evaltrack.Section{
			Range: s.r,
			Properties: segment.SectionProperties{
				Row:             s.row,
				OverlapPriority: s.priority,
				Start:           s.r.Lower,
			},
		})
		track.AddTreeData(s.r, segment.Eval(impl))
	}
	return track
}

func TestCompileTwoRowTrackLayouts(t *testing.T) {
	specs := []sectionSpec{
		{r: timerange.Closed(10, 25), row: 0},
		{r: timerange.Closed(20, 30), row: 1},
	}
	additive := []wantSegment{
		{timerange.HalfOpen(10, 20), evals(0)},
		{timerange.Closed(20, 25), evals(0, 1)},
		{rng(excl(25), incl(30)), evals(1)},
	}
	nearest := []wantSegment{
		{timerange.LessThan(10), []segment.SectionEvaluationData{segment.EvalForced(0, 10)}},
		additive[0], additive[1], additive[2],
		{rng(excl(30), posInf), []segment.SectionEvaluationData{segment.EvalForced(1, 30)}},
	}
	cases := []struct {
		name    string
		blender segment.TrackBlender
		want    []wantSegment
	}{
		{"additive camera", segment.StartTimeBlender{}, additive},
		{"nearest section", segment.SortByRowBlender{EvaluateNearest: true}, nearest},
		{"no nearest section", segment.SortByRowBlender{}, additive},
		{"high pass", segment.SortByRowBlender{HighPass: true}, []wantSegment{
			{timerange.Closed(10, 25), evals(0)},
			{rng(excl(25), incl(30)), evals(1)},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertSegments(t, sectionTrack(specs, tc.blender), tc.want)
		})
	}
}

func TestCompileFourRowTrackLayouts(t *testing.T) {
	specs := []sectionSpec{
		{r: timerange.Closed(10, 30), row: 1},
		{r: timerange.All(), row: 2},
		{r: timerange.Closed(20, 30), row: 0},
		{r: timerange.Closed(15, 25), row: 0, priority: 100},
	}
	ranges := []timerange.Range{
		rng(negInf, excl(10)),
		timerange.HalfOpen(10, 15),
		timerange.Closed(15, 25),
		rng(excl(25), incl(30)),
		rng(excl(30), posInf),
	}
	layout := func(impls ...[]int) []wantSegment {
		out := make([]wantSegment, len(impls))
		for i, ids := range impls {
			out[i] = wantSegment{ranges[i], evals(ids...)}
		}
		return out
	}
	cases := []struct {
		name    string
		blender segment.TrackBlender
		want    []wantSegment
	}{
		{"additive camera", segment.StartTimeBlender{}, layout([]int{1}, []int{1, 0}, []int{1, 0, 3}, []int{1, 0, 2}, []int{1})},
		{"row order", segment.SortByRowBlender{EvaluateNearest: true}, layout([]int{1}, []int{0, 1}, []int{3, 0, 1}, []int{2, 0, 1}, []int{1})},
		{"high pass", segment.SortByRowBlender{HighPass: true}, layout([]int{1}, []int{0}, []int{3}, []int{2}, []int{1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertSegments(t, sectionTrack(specs, tc.blender), tc.want)
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	track := sectionTrack([]sectionSpec{
		{r: timerange.HalfOpen(0, 10)},
		{r: timerange.HalfOpen(5, 15), row: 1},
	}, segment.SortByRowBlender{})

	first := track.GetSegmentsInRange(timerange.All())
	before := track.SortedSegments()
	second := track.GetSegmentsInRange(timerange.All())
	if !slices.Equal(first, second) {
		t.Fatalf("ids changed between compilations: %v vs %v", first, second)
	}
	if after := track.SortedSegments(); !slices.EqualFunc(before, after, func(a, b segment.Segment) bool {
		return a.ID == b.ID && a.Range.Equal(b.Range) && a.Equivalent(b)
	}) {
		t.Fatalf("content changed: %v vs %v", before, after)
	}

	track.Invalidate()
	if len(track.SortedSegments()) != 0 {
		t.Fatal("invalidate kept segments")
	}
	third := track.GetSegmentsInRange(timerange.All())
	if len(third) != len(first) {
		t.Fatalf("recompiled %d segments, want %d", len(third), len(first))
	}
	for _, id := range third {
		if slices.Contains(first, id) {
			t.Fatalf("id %d reused after invalidation", id)
		}
	}
}

func TestGetSegmentsInRangeStopsAtRangeEnd(t *testing.T) {
	track := sectionTrack([]sectionSpec{
		{r: timerange.HalfOpen(0, 10)},
		{r: timerange.HalfOpen(10, 20), row: 1},
		{r: timerange.HalfOpen(20, 30), row: 2},
	}, segment.SortByRowBlender{})

	ids := track.GetSegmentsInRange(timerange.HalfOpen(5, 15))
	if len(ids) != 2 {
		t.Fatalf("got %d segments, want 2", len(ids))
	}
	if len(track.SortedSegments()) != 2 {
		t.Fatalf("compiled %d segments, want only the 2 requested", len(track.SortedSegments()))
	}
	if got := track.GetSegmentFromTime(-5); got.IsValid() {
		t.Fatalf("segment %d compiled where nothing applies", got)
	}
}

func TestFieldRangesMergeAdjacentData(t *testing.T) {
	track := sectionTrack([]sectionSpec{
		{r: timerange.HalfOpen(0, 10)},
		{r: timerange.HalfOpen(10, 20), row: 1},
		{r: timerange.HalfOpen(30, 40)},
	}, segment.SortByRowBlender{})

	got := track.FieldRanges()
	want := []timerange.Range{timerange.HalfOpen(0, 20), timerange.HalfOpen(30, 40)}
	if !slices.EqualFunc(got, want, timerange.Range.Equal) {
		t.Fatalf("field ranges = %v, want %v", got, want)
	}

	track.TrackBlender = segment.SortByRowBlender{EvaluateNearest: true}
	if got := track.FieldRanges(); len(got) != 1 || !got[0].Equal(timerange.All()) {
		t.Fatalf("filling track field ranges = %v", got)
	}
}

// decliningFill asks to fill empty space, declines every request and
// allows empty segments instead.
type decliningFill struct{ segment.SortByPriorityBlender }

func (decliningFill) CanFillEmptySpace() bool  { return true }
func (decliningFill) AllowEmptySegments() bool { return true }
func (decliningFill) InsertEmptySpace(timerange.Range, *segment.Segment, *segment.Segment) (segment.Segment, bool) {
	return segment.Segment{}, false
}

func TestDeclinedFillFallsBackToEmptySegment(t *testing.T) {
	track := evaltrack.New("declined")
	track.TrackBlender = decliningFill{}
	track.AddTreeData(timerange.HalfOpen(10, 20), segment.Eval(0))

	id := track.GetSegmentFromTime(25)
	if !id.IsValid() {
		t.Fatal("no segment compiled for empty space")
	}
	seg, ok := track.Segment(id)
	if !ok || !seg.AllowEmpty || len(seg.Impls) != 0 || !seg.Range.Contains(25) {
		t.Fatalf("segment = %+v", seg)
	}
}
