package segment

import (
	"cmp"
	"slices"

	"moviescene/internal/timerange"
)

// SectionProperties are the authored properties of the section behind an
// entry that blenders are allowed to look at.
type SectionProperties struct {
	Row             int             `json:"row"`
	OverlapPriority int             `json:"overlap_priority"`
	Start           timerange.Bound `json:"start"`
	Blendable       bool            `json:"blendable,omitempty"`
}

// BlendEntry pairs an evaluation entry with its source section. Section is
// nil for entries added without a section template.
type BlendEntry struct {
	Data    SectionEvaluationData
	Section *SectionProperties
}

// Row returns the entry's row, or 0 for section-less entries.
func (e BlendEntry) Row() int {
	if e.Section == nil {
		return 0
	}
	return e.Section.Row
}

// RowBlender reduces the entries stacked on a single row.
type RowBlender interface {
	BlendRow(entries []BlendEntry) []BlendEntry
}

// TrackBlender orders the row-blended entries of a track and decides how
// time without any contributing entry is compiled.
type TrackBlender interface {
	Blend(entries []BlendEntry) []BlendEntry
	// CanFillEmptySpace reports whether InsertEmptySpace should be asked for a
	// segment where nothing contributes.
	CanFillEmptySpace() bool
	// AllowEmptySegments reports whether empty time compiles to an empty
	// segment instead of no segment.
	AllowEmptySegments() bool
	// InsertEmptySpace builds a segment for empty r from the nearest
	// non-empty segments on either side (either may be nil).
	InsertEmptySpace(r timerange.Range, previous, next *Segment) (Segment, bool)
}

// EmptySpacePolicy provides the empty-space half of TrackBlender for
// blenders that embed it.
type EmptySpacePolicy struct {
	FillEmptySpace bool
	AllowEmpty     bool
}

// CanFillEmptySpace implements TrackBlender.
func (p EmptySpacePolicy) CanFillEmptySpace() bool { return p.FillEmptySpace }

// AllowEmptySegments implements TrackBlender.
func (p EmptySpacePolicy) AllowEmptySegments() bool { return p.AllowEmpty }

// InsertEmptySpace implements TrackBlender by producing an empty segment
// when empty segments are allowed.
func (p EmptySpacePolicy) InsertEmptySpace(r timerange.Range, _, _ *Segment) (Segment, bool) {
	if !p.AllowEmpty {
		return Segment{}, false
	}
	s := New(r)
	s.AllowEmpty = true
	return s, true
}

// Blend runs the row blender over each row independently, concatenates the
// rows in ascending row order, then runs the track blender over the result.
// Either blender may be nil.
func Blend(entries []BlendEntry, rows RowBlender, track TrackBlender) []BlendEntry {
	if len(entries) == 0 {
		return nil
	}
	out := entries
	if rows != nil {
		out = blendRows(entries, rows)
	}
	if track != nil {
		out = track.Blend(out)
	}
	return out
}

func blendRows(entries []BlendEntry, rows RowBlender) []BlendEntry {
	byRow := make(map[int][]BlendEntry)
	var order []int
	for _, e := range entries {
		r := e.Row()
		if _, ok := byRow[r]; !ok {
			order = append(order, r)
		}
		byRow[r] = append(byRow[r], e)
	}
	slices.Sort(order)

	out := make([]BlendEntry, 0, len(entries))
	for _, r := range order {
		out = append(out, rows.BlendRow(byRow[r])...)
	}
	return out
}

// Impls extracts the evaluation entries from blended data.
func Impls(entries []BlendEntry) []SectionEvaluationData {
	if len(entries) == 0 {
		return nil
	}
	out := make([]SectionEvaluationData, len(entries))
	for i, e := range entries {
		out[i] = e.Data
	}
	return out
}

func overlapPriority(e BlendEntry) int {
	if e.Section == nil {
		return 0
	}
	return e.Section.OverlapPriority
}

func compareStart(a, b BlendEntry) int {
	switch {
	case a.Section == nil && b.Section == nil:
		return 0
	case a.Section == nil:
		return -1
	case b.Section == nil:
		return 1
	}
	return timerange.CompareLower(a.Section.Start, b.Section.Start)
}

func compareRow(a, b BlendEntry) int {
	return cmp.Compare(a.Row(), b.Row())
}
