package field

import (
	"fmt"

	"moviescene/internal/evalcontext"
	"moviescene/internal/segment"
)

// SegmentPtr addresses one compiled segment of one track in one sequence
// instance.
type SegmentPtr struct {
	SequenceID evalcontext.SequenceID     `json:"sequence_id"`
	TrackID    evalcontext.TrackIdentifier `json:"track_id"`
	SegmentID  segment.ID                 `json:"segment_id"`
}

// TrackKey returns the evaluation key of the track p points into.
func (p SegmentPtr) TrackKey() evalcontext.EvaluationKey {
	return evalcontext.TrackKey(p.SequenceID, p.TrackID)
}

func (p SegmentPtr) String() string {
	return fmt.Sprintf("%s/%d#%d", p.SequenceID, p.TrackID, p.SegmentID)
}

// LUTIndex describes one flush block of a Group: NumInit pointers needing
// initialization, followed by NumEval pointers to evaluate, starting at Offset.
type LUTIndex struct {
	Group   string `json:"group,omitempty"`
	Offset  int    `json:"offset"`
	NumInit int    `json:"num_init"`
	NumEval int    `json:"num_eval"`
}

// Group is the evaluation plan of one field entry.
type Group struct {
	LUTIndices  []LUTIndex   `json:"lut"`
	SegmentPtrs []SegmentPtr `json:"segments"`
}

// InitPtrs returns the pointers block i initializes.
func (g Group) InitPtrs(i int) []SegmentPtr {
	lut := g.LUTIndices[i]
	return g.SegmentPtrs[lut.Offset : lut.Offset+lut.NumInit]
}

// EvalPtrs returns the pointers block i evaluates.
func (g Group) EvalPtrs(i int) []SegmentPtr {
	lut := g.LUTIndices[i]
	start := lut.Offset + lut.NumInit
	return g.SegmentPtrs[start : start+lut.NumEval]
}

// IsEmpty reports whether the group evaluates nothing.
func (g Group) IsEmpty() bool { return len(g.SegmentPtrs) == 0 }

// GroupBuilder lays out flush blocks.
type GroupBuilder struct {
	g Group
}

// AddBlock appends a flush block for group name.
func (b *GroupBuilder) AddBlock(name string, init, eval []SegmentPtr) {
	if len(init) == 0 && len(eval) == 0 {
		return
	}
	b.g.LUTIndices = append(b.g.LUTIndices, LUTIndex{
		Group:   name,
		Offset:  len(b.g.SegmentPtrs),
		NumInit: len(init),
		NumEval: len(eval),
	})
	b.g.SegmentPtrs = append(b.g.SegmentPtrs, init...)
	b.g.SegmentPtrs = append(b.g.SegmentPtrs, eval...)
}

// Group returns the built group.
func (b *GroupBuilder) Group() Group { return b.g }
