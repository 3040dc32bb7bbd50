package field

import (
	"slices"
	"sort"

	"github.com/google/uuid"

	"moviescene/internal/invariant"
	"moviescene/internal/timerange"
)

// Entry is one cached range of the field.
type Entry struct {
	Range    timerange.Range `json:"range"`
	Group    Group           `json:"group"`
	Metadata Metadata        `json:"metadata"`
}

// Field holds sorted, non-overlapping ranges, each with the evaluation group
// and metadata compiled for it. The zero value is empty and usable.
type Field struct {
	entries   []Entry
	signature uuid.UUID
}

// Len returns the number of cached ranges.
func (f *Field) Len() int { return len(f.entries) }

// Range returns the range of entry i.
func (f *Field) Range(i int) timerange.Range { return f.entries[i].Range }

// Group returns the evaluation group of entry i.
func (f *Field) Group(i int) Group { return f.entries[i].Group }

// Metadata returns the metadata of entry i.
func (f *Field) Metadata(i int) Metadata { return f.entries[i].Metadata }

// Entries returns a copy of all entries in time order.
func (f *Field) Entries() []Entry { return slices.Clone(f.entries) }

// Signature changes every time entries are invalidated.
func (f *Field) Signature() uuid.UUID { return f.signature }

// GetSegmentFromTime returns the index of the entry containing t, or -1.
func (f *Field) GetSegmentFromTime(t float64) int {
	i := sort.Search(len(f.entries), func(i int) bool {
		return !endsBefore(f.entries[i].Range, t)
	})
	if i < len(f.entries) && f.entries[i].Range.Contains(t) {
		return i
	}
	return -1
}

// endsBefore reports whether every value of r is less than t.
func endsBefore(r timerange.Range, t float64) bool {
	switch {
	case r.Upper.IsOpen():
		return false
	case r.Upper.IsInclusive():
		return r.Upper.Value < t
	default:
		return r.Upper.Value <= t
	}
}

// Insert adds an entry for r, clipped against its neighbours so that no two
// entries overlap. insertTime picks the insertion point and must remain
// inside the clipped range. It returns the index of the new entry, or -1
// when insertTime is already covered or r does not contain it.
func (f *Field) Insert(insertTime float64, r timerange.Range, group Group, meta Metadata) int {
	if r.IsEmpty() {
		return -1
	}
	idx := sort.Search(len(f.entries), func(i int) bool {
		return startsAfter(f.entries[i].Range, insertTime)
	})

	clipped := r
	if idx > 0 {
		prev := f.entries[idx-1].Range
		if prev.Upper.IsOpen() {
			return -1
		}
		clipped.Lower = timerange.MaxLower(clipped.Lower, prev.Upper.FlipInclusion())
	}
	if idx < len(f.entries) {
		next := f.entries[idx].Range
		clipped.Upper = timerange.MinUpper(clipped.Upper, next.Lower.FlipInclusion())
	}
	if !clipped.Contains(insertTime) {
		return -1
	}
	if idx > 0 && !invariant.Check(!clipped.Overlaps(f.entries[idx-1].Range),
		"field entry overlaps its predecessor", "range", clipped.String()) {
		return -1
	}
	if idx < len(f.entries) && !invariant.Check(!clipped.Overlaps(f.entries[idx].Range),
		"field entry overlaps its successor", "range", clipped.String()) {
		return -1
	}

	f.entries = slices.Insert(f.entries, idx, Entry{Range: clipped, Group: group, Metadata: meta})
	return idx
}

// startsAfter reports whether every value of r is greater than t.
func startsAfter(r timerange.Range, t float64) bool {
	switch {
	case r.Lower.IsOpen():
		return false
	case r.Lower.IsInclusive():
		return r.Lower.Value > t
	default:
		return r.Lower.Value >= t
	}
}

// Add appends an entry that must start after every existing entry.
func (f *Field) Add(r timerange.Range, group Group, meta Metadata) {
	if n := len(f.entries); n > 0 {
		last := f.entries[n-1].Range
		if !invariant.Check(!last.Upper.IsOpen() && timerange.CompareLower(last.Upper.FlipInclusion(), r.Lower) <= 0,
			"field entries added out of order", "last", last.String(), "range", r.String()) {
			return
		}
	}
	f.entries = append(f.entries, Entry{Range: r, Group: group, Metadata: meta})
}

// Invalidate removes every entry overlapping r and returns how many were
// removed. The signature changes whenever something is removed.
func (f *Field) Invalidate(r timerange.Range) int {
	before := len(f.entries)
	f.entries = slices.DeleteFunc(f.entries, func(e Entry) bool {
		return e.Range.Overlaps(r)
	})
	removed := before - len(f.entries)
	if removed > 0 {
		f.signature = uuid.New()
	}
	return removed
}

// Reset drops every entry.
func (f *Field) Reset() {
	if len(f.entries) > 0 {
		f.signature = uuid.New()
	}
	f.entries = f.entries[:0]
}

// Snapshot is the serializable form of a Field.
type Snapshot struct {
	Signature uuid.UUID `json:"signature"`
	Entries   []Entry   `json:"entries"`
}

// Snapshot returns a copy of f that survives further mutation.
func (f *Field) Snapshot() Snapshot {
	out := Snapshot{Signature: f.signature, Entries: make([]Entry, len(f.entries))}
	for i, e := range f.entries {
		out.Entries[i] = Entry{
			Range:    e.Range,
			Group:    Group{LUTIndices: slices.Clone(e.Group.LUTIndices), SegmentPtrs: slices.Clone(e.Group.SegmentPtrs)},
			Metadata: e.Metadata.Clone(),
		}
	}
	return out
}

// Restore replaces f's content with s. Entries that would break ordering
// are dropped.
func (f *Field) Restore(s Snapshot) {
	f.entries = f.entries[:0]
	f.signature = s.Signature
	for _, e := range s.Entries {
		f.Add(e.Range, e.Group, e.Metadata)
	}
}
