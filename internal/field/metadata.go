package field

import (
	"cmp"
	"maps"
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/hierarchy"
	"moviescene/internal/timerange"
)

// Metadata describes what is active over one field entry.
type Metadata struct {
	// ActiveSequences is sorted and unique.
	ActiveSequences []evalcontext.SequenceID `json:"active_sequences"`
	// ActiveEntities is sorted by key and unique.
	ActiveEntities []evalcontext.OrderedKey `json:"active_entities"`
	// SubTemplateSignatures snapshots the signature of every nested
	// sequence the entry was compiled from.
	SubTemplateSignatures map[evalcontext.SequenceID]uuid.UUID `json:"sub_template_signatures,omitempty"`
}

// Reset empties m keeping its storage.
func (m *Metadata) Reset() {
	m.ActiveSequences = m.ActiveSequences[:0]
	m.ActiveEntities = m.ActiveEntities[:0]
	clear(m.SubTemplateSignatures)
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	return Metadata{
		ActiveSequences:       slices.Clone(m.ActiveSequences),
		ActiveEntities:        slices.Clone(m.ActiveEntities),
		SubTemplateSignatures: maps.Clone(m.SubTemplateSignatures),
	}
}

// Normalize sorts and deduplicates the active lists. Duplicate entity keys
// keep their lowest evaluation index.
func (m *Metadata) Normalize() {
	slices.Sort(m.ActiveSequences)
	m.ActiveSequences = slices.Compact(m.ActiveSequences)

	slices.SortStableFunc(m.ActiveEntities, func(a, b evalcontext.OrderedKey) int {
		if c := a.Key.Compare(b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.EvaluationIndex, b.EvaluationIndex)
	})
	m.ActiveEntities = slices.CompactFunc(m.ActiveEntities, func(a, b evalcontext.OrderedKey) bool {
		return a.Key == b.Key
	})
}

// DiffSequences returns the sequences active in m but not in last, and those
// active in last but not in m. Both lists must be sorted.
func (m Metadata) DiffSequences(last Metadata) (added, expired []evalcontext.SequenceID) {
	i, j := 0, 0
	for i < len(m.ActiveSequences) || j < len(last.ActiveSequences) {
		switch {
		case j >= len(last.ActiveSequences):
			added = append(added, m.ActiveSequences[i])
			i++
		case i >= len(m.ActiveSequences):
			expired = append(expired, last.ActiveSequences[j])
			j++
		case m.ActiveSequences[i] == last.ActiveSequences[j]:
			i++
			j++
		case m.ActiveSequences[i] < last.ActiveSequences[j]:
			added = append(added, m.ActiveSequences[i])
			i++
		default:
			expired = append(expired, last.ActiveSequences[j])
			j++
		}
	}
	return added, expired
}

// DiffEntities returns the entities active in m but not in last, ordered by
// their evaluation index in m, and those active in last but not in m,
// ordered by descending evaluation index in last so that teardown runs in
// reverse evaluation order. Both entity lists must be sorted by key.
func (m Metadata) DiffEntities(last Metadata) (added, expired []evalcontext.OrderedKey) {
	i, j := 0, 0
	for i < len(m.ActiveEntities) || j < len(last.ActiveEntities) {
		switch {
		case j >= len(last.ActiveEntities):
			added = append(added, m.ActiveEntities[i])
			i++
		case i >= len(m.ActiveEntities):
			expired = append(expired, last.ActiveEntities[j])
			j++
		default:
			c := m.ActiveEntities[i].Key.Compare(last.ActiveEntities[j].Key)
			switch {
			case c == 0:
				i++
				j++
			case c < 0:
				added = append(added, m.ActiveEntities[i])
				i++
			default:
				expired = append(expired, last.ActiveEntities[j])
				j++
			}
		}
	}
	slices.SortStableFunc(added, func(a, b evalcontext.OrderedKey) int {
		return cmp.Compare(a.EvaluationIndex, b.EvaluationIndex)
	})
	slices.SortStableFunc(expired, func(a, b evalcontext.OrderedKey) int {
		return cmp.Compare(b.EvaluationIndex, a.EvaluationIndex)
	})
	return added, expired
}

// SignatureLookup reports the live signature of nested instance id and the
// root-time range it plays over.
type SignatureLookup func(id evalcontext.SequenceID) (sig uuid.UUID, rootRange timerange.Range, ok bool)

// IsDirty reports whether any nested sequence the entry was compiled from
// has changed since, and the root-time hull of the ranges to invalidate.
// Instances that no longer exist dirty the whole timeline.
func (m Metadata) IsDirty(lookup SignatureLookup) (bool, timerange.Range) {
	dirty := false
	invalid := timerange.Empty()
	for _, id := range slices.Sorted(maps.Keys(m.SubTemplateSignatures)) {
		sig, rootRange, ok := lookup(id)
		if ok && sig == m.SubTemplateSignatures[id] {
			continue
		}
		dirty = true
		if !ok {
			rootRange = timerange.All()
		}
		invalid = timerange.Hull(invalid, rootRange)
	}
	return dirty, invalid
}

// RemapSequenceIDsForRoot rebases metadata compiled against a template
// whose hierarchy is local, onto the real root where that template's
// sequence plays as instance override.
func (m *Metadata) RemapSequenceIDsForRoot(override evalcontext.SequenceID, local *hierarchy.Hierarchy) {
	if override == evalcontext.RootSequenceID {
		return
	}
	for i, id := range m.ActiveSequences {
		m.ActiveSequences[i] = local.Rebase(id, override)
	}
	for i := range m.ActiveEntities {
		m.ActiveEntities[i].Key.SequenceID = local.Rebase(m.ActiveEntities[i].Key.SequenceID, override)
	}
	if len(m.SubTemplateSignatures) > 0 {
		remapped := make(map[evalcontext.SequenceID]uuid.UUID, len(m.SubTemplateSignatures))
		for id, sig := range m.SubTemplateSignatures {
			remapped[local.Rebase(id, override)] = sig
		}
		m.SubTemplateSignatures = remapped
	}
	m.Normalize()
}
