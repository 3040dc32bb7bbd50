package segment

import (
	"slices"
	"sort"

	"moviescene/internal/invariant"
	"moviescene/internal/timerange"
)

// Array is a sorted, non-overlapping list of segments addressed by stable
// identifiers. The zero value is ready to use.
type Array struct {
	segments []Segment
	index    map[ID]int
	aliases  map[ID]ID
	nextID   ID
}

// Len returns the number of segments.
func (a *Array) Len() int { return len(a.segments) }

// At returns the segment at sorted position i.
func (a *Array) At(i int) Segment { return a.segments[i] }

// Sorted returns the segments in time order. Callers must not modify it.
func (a *Array) Sorted() []Segment { return a.segments }

// NextID returns the identifier the next new segment will receive.
func (a *Array) NextID() ID { return a.nextID }

// Reset drops every segment. Identifiers continue from the previous
// high-water mark so stale identifiers never alias new segments.
func (a *Array) Reset() {
	a.segments = nil
	a.index = nil
	a.aliases = nil
}

// Restore replaces the contents with previously compiled segments that must
// already be sorted and non-overlapping.
func (a *Array) Restore(segments []Segment, nextID ID) {
	a.Reset()
	a.segments = slices.Clone(segments)
	a.reindex(0)
	if nextID > a.nextID {
		a.nextID = nextID
	}
	for _, s := range a.segments {
		if s.ID >= a.nextID {
			a.nextID = s.ID + 1
		}
	}
}

func (a *Array) resolve(id ID) ID {
	for {
		next, ok := a.aliases[id]
		if !ok {
			return id
		}
		id = next
	}
}

// IndexOf returns the sorted position of the segment identified by id.
func (a *Array) IndexOf(id ID) (int, bool) {
	if !id.IsValid() {
		return -1, false
	}
	i, ok := a.index[a.resolve(id)]
	return i, ok
}

// Lookup returns the segment identified by id. Identifiers absorbed by a
// merge resolve to the surviving segment.
func (a *Array) Lookup(id ID) (Segment, bool) {
	i, ok := a.IndexOf(id)
	if !ok {
		return Segment{ID: InvalidID}, false
	}
	return a.segments[i], true
}

// search returns the first position whose segment does not end before a
// range starting at b.
func (a *Array) search(b timerange.Bound) int {
	return sort.Search(len(a.segments), func(i int) bool {
		return !timerange.New(b, a.segments[i].Range.Upper).IsEmpty()
	})
}

// FindLowerBound returns the segment containing the start of a range
// beginning at b.
func (a *Array) FindLowerBound(b timerange.Bound) ID {
	i := a.search(b)
	if i < len(a.segments) && a.segments[i].Range.ContainsLowerBound(b) {
		return a.segments[i].ID
	}
	return InvalidID
}

// Find returns the segment containing t.
func (a *Array) Find(t float64) ID {
	return a.FindLowerBound(timerange.InclusiveBound(t))
}

// Insert adds seg, merging it into an adjacent equivalent segment where
// possible, and returns the identifier now covering seg's range.
func (a *Array) Insert(seg Segment) ID {
	if seg.Range.IsEmpty() {
		return InvalidID
	}

	pos := a.search(seg.Range.Lower)
	if pos < len(a.segments) && a.segments[pos].Range.Overlaps(seg.Range) {
		invariant.Check(false, "segment overlaps existing segment",
			"new", seg.Range.String(), "existing", a.segments[pos].Range.String())
		return a.segments[pos].ID
	}

	if pos > 0 {
		prev := &a.segments[pos-1]
		if adjoins(prev.Range, seg.Range) && prev.Equivalent(seg) {
			prev.Range.Upper = seg.Range.Upper
			if pos < len(a.segments) {
				next := a.segments[pos]
				if adjoins(prev.Range, next.Range) && prev.Equivalent(next) {
					prev.Range.Upper = next.Range.Upper
					a.alias(next.ID, prev.ID)
					a.segments = slices.Delete(a.segments, pos, pos+1)
					a.reindex(pos)
				}
			}
			return prev.ID
		}
	}

	if pos < len(a.segments) {
		next := &a.segments[pos]
		if adjoins(seg.Range, next.Range) && next.Equivalent(seg) {
			next.Range.Lower = seg.Range.Lower
			return next.ID
		}
	}

	seg.ID = a.nextID
	a.nextID++
	a.segments = slices.Insert(a.segments, pos, seg)
	a.reindex(pos)
	return seg.ID
}

func (a *Array) alias(from, to ID) {
	if a.aliases == nil {
		a.aliases = make(map[ID]ID)
	}
	a.aliases[from] = to
	delete(a.index, from)
}

func (a *Array) reindex(from int) {
	if a.index == nil {
		a.index = make(map[ID]int, len(a.segments))
	}
	for i := from; i < len(a.segments); i++ {
		a.index[a.segments[i].ID] = i
	}
}

// adjoins reports whether before ends exactly where after starts.
func adjoins(before, after timerange.Range) bool {
	if before.Upper.IsOpen() || after.Lower.IsOpen() {
		return false
	}
	return timerange.CompareLower(before.Upper.FlipInclusion(), after.Lower) == 0
}
