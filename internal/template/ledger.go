package template

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
)

// Ledger maps authored track signatures to the identifiers of the
// evaluation tracks generated from them. Identifiers are never reused.
type Ledger struct {
	nextID      evalcontext.TrackIdentifier
	bySignature map[uuid.UUID]evalcontext.TrackIdentifier
}

// LedgerEntry is one signature/identifier pair.
type LedgerEntry struct {
	Signature uuid.UUID                   `json:"signature"`
	ID        evalcontext.TrackIdentifier `json:"id"`
}

// Find returns the identifier assigned to sig.
func (l *Ledger) Find(sig uuid.UUID) (evalcontext.TrackIdentifier, bool) {
	id, ok := l.bySignature[sig]
	return id, ok
}

// Assign returns the identifier for sig, allocating one if needed.
func (l *Ledger) Assign(sig uuid.UUID) evalcontext.TrackIdentifier {
	if id, ok := l.bySignature[sig]; ok {
		return id
	}
	if l.bySignature == nil {
		l.bySignature = make(map[uuid.UUID]evalcontext.TrackIdentifier)
	}
	l.nextID++
	l.bySignature[sig] = l.nextID
	return l.nextID
}

// Remove forgets sig.
func (l *Ledger) Remove(sig uuid.UUID) {
	delete(l.bySignature, sig)
}

// Len returns the number of live entries.
func (l *Ledger) Len() int { return len(l.bySignature) }

// NextID returns the last identifier handed out.
func (l *Ledger) NextID() evalcontext.TrackIdentifier { return l.nextID }

// Entries returns the live entries ordered by identifier.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(l.bySignature))
	for sig, id := range l.bySignature {
		out = append(out, LedgerEntry{Signature: sig, ID: id})
	}
	slices.SortFunc(out, func(a, b LedgerEntry) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return bytes.Compare(a.Signature[:], b.Signature[:])
	})
	return out
}

// Restore replaces the ledger content.
func (l *Ledger) Restore(entries []LedgerEntry, nextID evalcontext.TrackIdentifier) {
	l.bySignature = make(map[uuid.UUID]evalcontext.TrackIdentifier, len(entries))
	l.nextID = nextID
	for _, e := range entries {
		l.bySignature[e.Signature] = e.ID
		l.nextID = max(l.nextID, e.ID)
	}
}
