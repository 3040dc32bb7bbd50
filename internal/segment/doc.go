// Package segment holds the compiled output of a single evaluation track and
// the rules that produce it.
//
// A Segment is a maximal time range over which the same ordered list of
// SectionEvaluationData entries runs. Array keeps segments sorted, merges
// identical neighbours as they are inserted, and hands out identifiers that
// stay valid for the lifetime of the track even when segments merge.
//
// Blending happens in two phases. A RowBlender reduces the sections stacked
// on one row to the ones that should contribute (normally the highest overlap
// priority), then a TrackBlender orders the rows' survivors and decides what
// to do with time where nothing contributes: skip it, keep an empty segment,
// or fill it from the nearest neighbouring segment.
package segment
