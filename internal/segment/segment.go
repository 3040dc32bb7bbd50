package segment

import (
	"slices"
	"strings"

	"moviescene/internal/timerange"
)

// ID identifies a segment within one track. IDs are never reused.
type ID int32

// InvalidID is returned when no segment applies.
const InvalidID ID = -1

// IsValid reports whether id refers to a segment.
func (id ID) IsValid() bool { return id >= 0 }

// Segment is a time range and the ordered entries evaluated over it.
type Segment struct {
	Range      timerange.Range         `json:"range"`
	ID         ID                      `json:"id"`
	Impls      []SectionEvaluationData `json:"impls,omitempty"`
	AllowEmpty bool                    `json:"allow_empty,omitempty"`
}

// New returns an unidentified segment over r.
func New(r timerange.Range, impls ...SectionEvaluationData) Segment {
	return Segment{Range: r, ID: InvalidID, Impls: impls}
}

// Equivalent reports whether s and other evaluate the same content and may
// therefore be merged when adjacent.
func (s Segment) Equivalent(other Segment) bool {
	return s.AllowEmpty == other.AllowEmpty && slices.Equal(s.Impls, other.Impls)
}

// HasImpl reports whether the segment evaluates impl in any form.
func (s Segment) HasImpl(impl int) bool {
	return slices.ContainsFunc(s.Impls, func(d SectionEvaluationData) bool { return d.ImplIndex == impl })
}

func (s Segment) String() string {
	parts := make([]string, len(s.Impls))
	for i, d := range s.Impls {
		parts[i] = d.String()
	}
	return s.Range.String() + " {" + strings.Join(parts, ", ") + "}"
}
