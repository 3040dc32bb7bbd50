package template_test

import (
	"moviescene/internal/evalcontext"
	"moviescene/internal/field"
)

func segmentGroup(id evalcontext.TrackIdentifier) field.Group {
	var b field.GroupBuilder
	b.AddBlock("", nil, []field.SegmentPtr{{TrackID: id}})
	return b.Group()
}

func fieldMetadata() field.Metadata {
	return field.Metadata{ActiveSequences: []evalcontext.SequenceID{evalcontext.RootSequenceID}}
}
