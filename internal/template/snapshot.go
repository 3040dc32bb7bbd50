package template

import (
	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/field"
)

// TrackSnapshot is the compiled state of one track keyed by the signature
// of the authored track it came from.
type TrackSnapshot struct {
	SourceSignature uuid.UUID          `json:"source_signature"`
	Compiled        evaltrack.Snapshot `json:"compiled"`
}

// Snapshot is the persistable state of a template: the ledger, every
// track's compiled segments and the field cache.
type Snapshot struct {
	SequenceSignature uuid.UUID                   `json:"sequence_signature"`
	Ledger            []LedgerEntry               `json:"ledger"`
	NextTrackID       evalcontext.TrackIdentifier `json:"next_track_id"`
	Tracks            []TrackSnapshot             `json:"tracks"`
	Field             field.Snapshot              `json:"field"`
}

// Snapshot captures t.
func (t *Template) Snapshot() Snapshot {
	s := Snapshot{
		SequenceSignature: t.SequenceSignature,
		Ledger:            t.ledger.Entries(),
		NextTrackID:       t.ledger.NextID(),
		Field:             t.field.Snapshot(),
	}
	for _, id := range t.TrackIDs() {
		track := t.tracks[id]
		s.Tracks = append(s.Tracks, TrackSnapshot{
			SourceSignature: track.SourceSignature,
			Compiled:        track.Snapshot(),
		})
	}
	return s
}

// Seed primes t with a snapshot taken from an earlier generation of the same
// sequence. The ledger is restored immediately so regenerated tracks keep
// their identifiers; compiled segments and the field are applied by
// ApplySeed once generation has rebuilt the tracks.
func (t *Template) Seed(s Snapshot) {
	t.ledger.Restore(s.Ledger, s.NextTrackID)
	t.seed = &s
}

// Seeded reports whether a snapshot is waiting to be applied.
func (t *Template) Seeded() bool { return t.seed != nil }

// ApplySeed restores the pending snapshot onto the generated tracks. It is a
// no-op without a pending snapshot, and discards it when the template was
// generated from a different sequence signature.
func (t *Template) ApplySeed() bool {
	s := t.seed
	t.seed = nil
	if s == nil || s.SequenceSignature != t.SequenceSignature {
		return false
	}
	bySig := make(map[uuid.UUID]evaltrack.Snapshot, len(s.Tracks))
	for _, ts := range s.Tracks {
		bySig[ts.SourceSignature] = ts.Compiled
	}
	for _, track := range t.tracks {
		if compiled, ok := bySig[track.SourceSignature]; ok {
			track.Restore(compiled)
		}
	}
	t.field.Restore(s.Field)
	return true
}
