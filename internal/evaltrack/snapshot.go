package evaltrack

import "moviescene/internal/segment"

// Snapshot is the serializable compiled state of a track.
type Snapshot struct {
	Segments []segment.Segment `json:"segments"`
	NextID   segment.ID        `json:"next_id"`
}

// Snapshot captures the segments compiled so far.
func (t *Track) Snapshot() Snapshot {
	return Snapshot{Segments: t.SortedSegments(), NextID: t.segments.NextID()}
}

// Restore replaces the compiled segments with s. The raw tree and sections
// must describe the same track the snapshot was taken from.
func (t *Track) Restore(s Snapshot) {
	t.segments.Restore(s.Segments, s.NextID)
}
