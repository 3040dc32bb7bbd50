package evaltrack

import (
	"slices"

	"moviescene/internal/evaltree"
	"moviescene/internal/segment"
	"moviescene/internal/timerange"
)

type treeIterator = evaltree.Iterator[segment.SectionEvaluationData]

// blend runs the track's blenders over the data applying at node.
func (t *Track) blend(node evaltree.NodeHandle) []segment.BlendEntry {
	var entries []segment.BlendEntry
	for d := range t.tree.AllData(node) {
		e := segment.BlendEntry{Data: d}
		if d.ImplIndex >= 0 && d.ImplIndex < len(t.sections) {
			props := t.sections[d.ImplIndex].Properties
			e.Section = &props
		}
		entries = append(entries, e)
	}
	return segment.Blend(entries, t.RowBlender, t.TrackBlender)
}

// CompileSegment compiles the tree range under it into a segment and returns
// the identifier now covering it, or segment.InvalidID when nothing should
// evaluate there.
func (t *Track) CompileSegment(it *treeIterator) segment.ID {
	if !it.Valid() {
		return segment.InvalidID
	}
	r := it.Range()
	blended := t.blend(it.Node())

	if len(blended) > 0 {
		return t.segments.Insert(segment.New(r, segment.Impls(blended)...))
	}
	if t.TrackBlender == nil {
		return segment.InvalidID
	}
	if t.TrackBlender.CanFillEmptySpace() {
		prev := t.nearestNonEmpty(it.Clone(), (*treeIterator).Prev)
		next := t.nearestNonEmpty(it.Clone(), (*treeIterator).Next)
		if filled, ok := t.TrackBlender.InsertEmptySpace(r, prev, next); ok {
			filled.Range = r
			filled.ID = segment.InvalidID
			return t.segments.Insert(filled)
		}
	}
	if t.TrackBlender.AllowEmptySegments() {
		seg := segment.New(r)
		seg.AllowEmpty = true
		return t.segments.Insert(seg)
	}
	return segment.InvalidID
}

// nearestNonEmpty steps it with step until a range with blended content is
// found and returns that content as a segment over the range.
func (t *Track) nearestNonEmpty(it *treeIterator, step func(*treeIterator) bool) *segment.Segment {
	for step(it) {
		if blended := t.blend(it.Node()); len(blended) > 0 {
			s := segment.New(it.Range(), segment.Impls(blended)...)
			return &s
		}
	}
	return nil
}

// GetSegmentFromTime returns the segment containing time, compiling it when
// necessary.
func (t *Track) GetSegmentFromTime(time float64) segment.ID {
	return t.GetSegmentAtBound(timerange.InclusiveBound(time))
}

// GetSegmentAtBound returns the segment containing the start of a range
// beginning at b, compiling it when necessary.
func (t *Track) GetSegmentAtBound(b timerange.Bound) segment.ID {
	if id := t.segments.FindLowerBound(b); id.IsValid() {
		return id
	}
	return t.CompileSegment(t.tree.IterateFromLowerBound(b))
}

// GetSegmentsInRange returns, in time order, every segment overlapping r,
// compiling them as needed.
func (t *Track) GetSegmentsInRange(r timerange.Range) []segment.ID {
	if r.IsEmpty() {
		return nil
	}
	var out []segment.ID
	b := r.Lower
	for {
		var upper timerange.Bound
		id := t.segments.FindLowerBound(b)
		if !id.IsValid() {
			it := t.tree.IterateFromLowerBound(b)
			id = t.CompileSegment(it)
			upper = it.Range().Upper
		}
		if seg, ok := t.segments.Lookup(id); ok {
			if n := len(out); n == 0 || out[n-1] != seg.ID {
				out = append(out, seg.ID)
			}
			upper = seg.Range.Upper
		}
		if upper.IsOpen() {
			return out
		}
		b = upper.FlipInclusion()
		if !r.ContainsLowerBound(b) {
			return out
		}
	}
}

// Segment returns the compiled segment id.
func (t *Track) Segment(id segment.ID) (segment.Segment, bool) {
	return t.segments.Lookup(id)
}

// SortedSegments returns every segment compiled so far in time order.
func (t *Track) SortedSegments() []segment.Segment {
	return slices.Clone(t.segments.Sorted())
}

// CompileAll compiles every range of the tree.
func (t *Track) CompileAll() {
	t.GetSegmentsInRange(timerange.All())
}

// Invalidate drops every compiled segment. Identifiers handed out before
// remain unused.
func (t *Track) Invalidate() {
	t.segments.Reset()
}

// SectionsAt returns the impl indices evaluated at time.
func (t *Track) SectionsAt(time float64) []int {
	seg, ok := t.segments.Lookup(t.GetSegmentFromTime(time))
	if !ok {
		return nil
	}
	out := make([]int, 0, len(seg.Impls))
	for _, d := range seg.Impls {
		if !slices.Contains(out, d.ImplIndex) {
			out = append(out, d.ImplIndex)
		}
	}
	return out
}
