// Package evaltrack holds the evaluation track: the section templates
// generated from one authored track, the raw interval tree describing when
// each section applies, and the segments compiled lazily from that tree.
//
// Segments are compiled on demand by GetSegmentFromTime, GetSegmentAtBound
// and GetSegmentsInRange, blended through the track's row and track
// blenders, and cached until Invalidate. Evaluation runs the section
// templates of one segment either statically at the context time or swept
// across the context range.
package evaltrack
