package evalcontext

import (
	"cmp"
	"fmt"

	"github.com/google/uuid"
)

// Operand addresses the objects one track animates: a binding within a
// specific sequence instance. A nil ObjectBinding addresses no object (master
// tracks).
type Operand struct {
	SequenceID    SequenceID `json:"sequence_id"`
	ObjectBinding uuid.UUID  `json:"object_binding"`
}

// NewOperand returns the operand for binding inside sequence id.
func NewOperand(id SequenceID, binding uuid.UUID) Operand {
	return Operand{SequenceID: id, ObjectBinding: binding}
}

// TrackKeySection is the section index used by keys that address a whole track.
const TrackKeySection = -1

// EvaluationKey identifies a track, or one section of a track, within a
// sequence instance.
type EvaluationKey struct {
	SequenceID   SequenceID      `json:"sequence_id"`
	TrackID      TrackIdentifier `json:"track_id"`
	SectionIndex int32           `json:"section_index"`
}

// TrackKey returns the key addressing a whole track.
func TrackKey(seq SequenceID, track TrackIdentifier) EvaluationKey {
	return EvaluationKey{SequenceID: seq, TrackID: track, SectionIndex: TrackKeySection}
}

// AsTrack returns the key of the track k belongs to.
func (k EvaluationKey) AsTrack() EvaluationKey {
	return TrackKey(k.SequenceID, k.TrackID)
}

// AsSection returns the key of section index within k's track.
func (k EvaluationKey) AsSection(index int) EvaluationKey {
	return EvaluationKey{SequenceID: k.SequenceID, TrackID: k.TrackID, SectionIndex: int32(index)}
}

// IsTrack reports whether k addresses a whole track.
func (k EvaluationKey) IsTrack() bool { return k.SectionIndex == TrackKeySection }

// Compare orders keys by sequence, track and section.
func (k EvaluationKey) Compare(other EvaluationKey) int {
	if c := cmp.Compare(k.SequenceID, other.SequenceID); c != 0 {
		return c
	}
	if c := cmp.Compare(k.TrackID, other.TrackID); c != 0 {
		return c
	}
	return cmp.Compare(k.SectionIndex, other.SectionIndex)
}

func (k EvaluationKey) String() string {
	if k.IsTrack() {
		return fmt.Sprintf("%s/%d", k.SequenceID, k.TrackID)
	}
	return fmt.Sprintf("%s/%d/%d", k.SequenceID, k.TrackID, k.SectionIndex)
}

// OrderedKey is an entity key tagged with the position at which it is first
// evaluated within a field entry.
type OrderedKey struct {
	Key             EvaluationKey `json:"key"`
	EvaluationIndex uint32        `json:"evaluation_index"`
}
