package evalcontext

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// SequenceID identifies a sequence instance within a hierarchy. The same
// child sequence nested twice receives two different IDs.
type SequenceID uint32

// RootSequenceID is reserved for the root of every hierarchy.
const RootSequenceID SequenceID = 0

// SequenceIDFromGUID derives the local ID of a sub-section's sequence
// from the sub-section's identity. It is never RootSequenceID.
func SequenceIDFromGUID(guid uuid.UUID) SequenceID {
	h := fnv.New32a()
	_, _ = h.Write(guid[:])
	id := SequenceID(h.Sum32())
	if id == RootSequenceID {
		id = 1
	}
	return id
}

// Accumulate combines a local ID with its parent's ID so that the result is
// unique to the nesting path. Children of the root keep their local ID.
func (id SequenceID) Accumulate(parent SequenceID) SequenceID {
	if parent == RootSequenceID {
		return id
	}
	out := SequenceID(hashCombine(uint32(id), uint32(parent)))
	if out == RootSequenceID {
		out = 1
	}
	return out
}

func (id SequenceID) String() string {
	if id == RootSequenceID {
		return "root"
	}
	return fmt.Sprintf("%08x", uint32(id))
}

// hashCombine is the Bob Jenkins 96-bit mix.
func hashCombine(a, c uint32) uint32 {
	b := uint32(0x9e3779b9)
	a += b

	a -= b
	a -= c
	a ^= c >> 13
	b -= c
	b -= a
	b ^= a << 8
	c -= a
	c -= b
	c ^= b >> 13
	a -= b
	a -= c
	a ^= c >> 12
	b -= c
	b -= a
	b ^= a << 16
	c -= a
	c -= b
	c ^= b >> 5
	a -= b
	a -= c
	a ^= c >> 3
	b -= c
	b -= a
	b ^= a << 10
	c -= a
	c -= b
	c ^= b >> 15
	return c
}

// TrackIdentifier identifies an evaluation track within one template.
type TrackIdentifier uint32

// InvalidTrack is never assigned to a track.
const InvalidTrack TrackIdentifier = 0

// IsValid reports whether id refers to a track.
func (id TrackIdentifier) IsValid() bool { return id != InvalidTrack }
