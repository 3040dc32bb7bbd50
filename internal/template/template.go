package template

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/evaltree"
	"moviescene/internal/field"
	"moviescene/internal/hierarchy"
	"moviescene/internal/segment"
	"moviescene/internal/sequence"
	"moviescene/internal/timerange"
)

// SubSectionEntry is the payload of the sub-section tree: the local ID of
// the nested instance and whether the range is its pre- or post-roll.
type SubSectionEntry struct {
	ID    evalcontext.SequenceID
	Flags segment.Flags
}

// Template is the compiled form of one sequence.
type Template struct {
	// SequenceSignature is the signature of the sequence the template was
	// last generated from.
	SequenceSignature uuid.UUID

	handle          sequence.Handle
	tracks          map[evalcontext.TrackIdentifier]*evaltrack.Track
	staleTracks     map[evalcontext.TrackIdentifier]*evaltrack.Track
	ledger          Ledger
	trackField      evaltree.Tree[evalcontext.TrackIdentifier]
	subSectionField evaltree.Tree[SubSectionEntry]
	subSections     map[uuid.UUID][]timerange.Range
	dependencies    map[sequence.Handle]uuid.UUID
	hierarchy       *hierarchy.Hierarchy
	field           field.Field

	seed *Snapshot
}

// New returns an empty template for the sequence behind h.
func New(h sequence.Handle) *Template {
	return &Template{
		handle:      h,
		tracks:      make(map[evalcontext.TrackIdentifier]*evaltrack.Track),
		staleTracks: make(map[evalcontext.TrackIdentifier]*evaltrack.Track),
		subSections: make(map[uuid.UUID][]timerange.Range),
		hierarchy:   hierarchy.New(),
	}
}

// Handle returns the sequence the template compiles.
func (t *Template) Handle() sequence.Handle { return t.handle }

// AddTrack registers track under the identifier its source signature maps
// to in the ledger.
func (t *Template) AddTrack(track *evaltrack.Track) evalcontext.TrackIdentifier {
	id := t.ledger.Assign(track.SourceSignature)
	t.tracks[id] = track
	return id
}

// FindTrack returns the track registered under id.
func (t *Template) FindTrack(id evalcontext.TrackIdentifier) (*evaltrack.Track, bool) {
	track, ok := t.tracks[id]
	return track, ok
}

// FindTrackBySignature returns the identifier generated for the authored
// track with signature sig.
func (t *Template) FindTrackBySignature(sig uuid.UUID) (evalcontext.TrackIdentifier, bool) {
	id, ok := t.ledger.Find(sig)
	if !ok {
		return evalcontext.InvalidTrack, false
	}
	_, live := t.tracks[id]
	return id, live
}

// RemoveTrack drops the track generated from sig and returns the hull of
// the time it contributed to. The track stays reachable through
// FindStaleTrack until ReleaseStaleTracks so entities it activated can
// still be torn down.
func (t *Template) RemoveTrack(sig uuid.UUID) timerange.Range {
	id, ok := t.ledger.Find(sig)
	if !ok {
		return timerange.Empty()
	}
	t.ledger.Remove(sig)
	track, ok := t.tracks[id]
	if !ok {
		return timerange.Empty()
	}
	delete(t.tracks, id)
	t.staleTracks[id] = track
	return hullOf(track.FieldRanges())
}

// FindStaleTrack returns the removed track that was registered under id.
func (t *Template) FindStaleTrack(id evalcontext.TrackIdentifier) (*evaltrack.Track, bool) {
	track, ok := t.staleTracks[id]
	return track, ok
}

// StaleTracks returns the number of removed tracks not yet released.
func (t *Template) StaleTracks() int { return len(t.staleTracks) }

// ReleaseStaleTracks forgets every removed track.
func (t *Template) ReleaseStaleTracks() { clear(t.staleTracks) }

// TrackIDs returns every live track identifier in ascending order.
func (t *Template) TrackIDs() []evalcontext.TrackIdentifier {
	return slices.Sorted(maps.Keys(t.tracks))
}

// SourceSignatures returns the authored track signatures currently compiled.
func (t *Template) SourceSignatures() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(t.tracks))
	for _, id := range t.TrackIDs() {
		out = append(out, t.tracks[id].SourceSignature)
	}
	return out
}

// Ledger exposes the identifier ledger.
func (t *Template) Ledger() *Ledger { return &t.ledger }

// TrackField is the tree of track identifiers by the time they contribute to.
func (t *Template) TrackField() *evaltree.Tree[evalcontext.TrackIdentifier] { return &t.trackField }

// RebuildTrackField repopulates the track field from the live tracks.
func (t *Template) RebuildTrackField() {
	t.trackField.Reset()
	for _, id := range t.TrackIDs() {
		for _, r := range t.tracks[id].FieldRanges() {
			t.trackField.Add(r, id)
		}
	}
}

// SubSectionField is the tree of nested instances by the outer time they
// play over.
func (t *Template) SubSectionField() *evaltree.Tree[SubSectionEntry] { return &t.subSectionField }

// SubSectionRanges returns the outer ranges last recorded for each
// sub-section signature.
func (t *Template) SubSectionRanges() map[uuid.UUID][]timerange.Range { return t.subSections }

// SetSubSectionRanges replaces the recorded sub-section ranges.
func (t *Template) SetSubSectionRanges(m map[uuid.UUID][]timerange.Range) { t.subSections = m }

// Dependencies returns the signature of every nested sequence the template
// was generated against.
func (t *Template) Dependencies() map[sequence.Handle]uuid.UUID { return t.dependencies }

// SetDependencies replaces the nested sequence signatures.
func (t *Template) SetDependencies(deps map[sequence.Handle]uuid.UUID) { t.dependencies = deps }

// Hierarchy is the flattened tree of nested instances below this sequence.
func (t *Template) Hierarchy() *hierarchy.Hierarchy { return t.hierarchy }

// Field is the evaluation field cache.
func (t *Template) Field() *field.Field { return &t.field }

// IsStale reports whether the template must be regenerated before use:
// its sequence or one of the nested sequences it was generated against has
// changed or disappeared.
func (t *Template) IsStale(resolve func(sequence.Handle) (*sequence.Sequence, bool)) bool {
	seq, ok := resolve(t.handle)
	if !ok || seq.Signature() != t.SequenceSignature {
		return true
	}
	for h, sig := range t.dependencies {
		dep, ok := resolve(h)
		if !ok || dep.Signature() != sig {
			return true
		}
	}
	return false
}

func hullOf(ranges []timerange.Range) timerange.Range {
	out := timerange.Empty()
	for _, r := range ranges {
		out = timerange.Hull(out, r)
	}
	return out
}
