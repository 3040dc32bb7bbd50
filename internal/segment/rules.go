package segment

import (
	"cmp"
	"math"
	"slices"

	"moviescene/internal/timerange"
)

// DefaultRowBlender keeps the sections with the highest overlap priority on a
// row. Blendable sections and pre/post-roll entries are always kept.
type DefaultRowBlender struct{}

// BlendRow implements RowBlender.
func (DefaultRowBlender) BlendRow(entries []BlendEntry) []BlendEntry {
	return FilterUnderlappingSections(entries)
}

// FilterUnderlappingSections removes every entry whose section is overlapped
// by a higher priority section.
func FilterUnderlappingSections(entries []BlendEntry) []BlendEntry {
	if len(entries) == 0 {
		return entries
	}
	highest := math.MinInt
	for _, e := range entries {
		if !alwaysEvaluated(e) {
			highest = max(highest, overlapPriority(e))
		}
	}
	return slices.DeleteFunc(slices.Clone(entries), func(e BlendEntry) bool {
		return !alwaysEvaluated(e) && overlapPriority(e) != highest
	})
}

func alwaysEvaluated(e BlendEntry) bool {
	if e.Data.Flags != FlagNone {
		return true
	}
	return e.Section != nil && e.Section.Blendable
}

// ChooseLowestRowIndex keeps only the entries on the lowest row present.
func ChooseLowestRowIndex(entries []BlendEntry) []BlendEntry {
	if len(entries) == 0 {
		return entries
	}
	lowest := math.MaxInt
	for _, e := range entries {
		lowest = min(lowest, e.Row())
	}
	return slices.DeleteFunc(slices.Clone(entries), func(e BlendEntry) bool {
		return e.Row() != lowest
	})
}

// EvaluateNearestSegment fills r by evaluating the previous segment's entries
// forced at its upper bound, or failing that the next segment's entries
// forced at its lower bound.
func EvaluateNearestSegment(r timerange.Range, previous, next *Segment) (Segment, bool) {
	switch {
	case previous != nil && previous.Range.Upper.IsClosed():
		return forcedCopy(r, previous, previous.Range.Upper.Value), true
	case next != nil && next.Range.Lower.IsClosed():
		return forcedCopy(r, next, next.Range.Lower.Value), true
	}
	return Segment{}, false
}

func forcedCopy(r timerange.Range, src *Segment, at float64) Segment {
	s := New(r)
	for _, d := range src.Impls {
		s.Impls = append(s.Impls, EvalForced(d.ImplIndex, at))
	}
	return s
}

// SortByPriorityBlender orders entries by overlap priority, highest first.
// Section-less entries put flagged entries first and then sort by impl index.
type SortByPriorityBlender struct {
	EmptySpacePolicy
}

// Blend implements TrackBlender.
func (SortByPriorityBlender) Blend(entries []BlendEntry) []BlendEntry {
	slices.SortStableFunc(entries, func(a, b BlendEntry) int {
		if a.Section == nil || b.Section == nil {
			af, bf := a.Data.Flags != FlagNone, b.Data.Flags != FlagNone
			if af != bf {
				if af {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.Data.ImplIndex, b.Data.ImplIndex)
		}
		return cmp.Compare(b.Section.OverlapPriority, a.Section.OverlapPriority)
	})
	return entries
}

// SortByRowBlender is the default track blender: entries evaluate in row
// order. HighPass keeps only the lowest row; EvaluateNearest fills empty
// time from the nearest segment.
type SortByRowBlender struct {
	HighPass        bool
	EvaluateNearest bool
}

// Blend implements TrackBlender.
func (b SortByRowBlender) Blend(entries []BlendEntry) []BlendEntry {
	if b.HighPass {
		entries = ChooseLowestRowIndex(entries)
	}
	slices.SortStableFunc(entries, compareRow)
	return entries
}

// CanFillEmptySpace implements TrackBlender.
func (b SortByRowBlender) CanFillEmptySpace() bool { return b.EvaluateNearest }

// AllowEmptySegments implements TrackBlender.
func (SortByRowBlender) AllowEmptySegments() bool { return false }

// InsertEmptySpace implements TrackBlender.
func (b SortByRowBlender) InsertEmptySpace(r timerange.Range, previous, next *Segment) (Segment, bool) {
	if !b.EvaluateNearest {
		return Segment{}, false
	}
	return EvaluateNearestSegment(r, previous, next)
}

// StartTimeBlender evaluates entries in order of their section's start time,
// as additive camera tracks require.
type StartTimeBlender struct {
	EmptySpacePolicy
}

// Blend implements TrackBlender.
func (StartTimeBlender) Blend(entries []BlendEntry) []BlendEntry {
	slices.SortStableFunc(entries, compareStart)
	return entries
}
