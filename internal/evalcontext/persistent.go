package evalcontext

// PersistentStore keeps data that outlives a single evaluation, keyed by the
// track or section that owns it.
type PersistentStore struct {
	entries map[EvaluationKey]any
}

// NewPersistentStore returns an empty store.
func NewPersistentStore() *PersistentStore {
	return &PersistentStore{entries: make(map[EvaluationKey]any)}
}

// Get returns the data stored for k.
func (s *PersistentStore) Get(k EvaluationKey) (any, bool) {
	v, ok := s.entries[k]
	return v, ok
}

// Set stores v for k.
func (s *PersistentStore) Set(k EvaluationKey, v any) {
	s.entries[k] = v
}

// Reset drops the data stored for k.
func (s *PersistentStore) Reset(k EvaluationKey) {
	delete(s.entries, k)
}

// Len returns the number of stored entries.
func (s *PersistentStore) Len() int { return len(s.entries) }

// PersistentData is the view of a PersistentStore handed to one template.
type PersistentData struct {
	store   *PersistentStore
	Track   EvaluationKey
	Section EvaluationKey
}

// Scoped returns a view addressing section of track.
func (s *PersistentStore) Scoped(track, section EvaluationKey) PersistentData {
	return PersistentData{store: s, Track: track, Section: section}
}

// TrackData returns the track's data.
func (p PersistentData) TrackData() (any, bool) { return p.store.Get(p.Track) }

// SetTrackData stores the track's data.
func (p PersistentData) SetTrackData(v any) { p.store.Set(p.Track, v) }

// SectionData returns the section's data.
func (p PersistentData) SectionData() (any, bool) { return p.store.Get(p.Section) }

// SetSectionData stores the section's data.
func (p PersistentData) SetSectionData(v any) { p.store.Set(p.Section, v) }

// ResetSectionData drops the section's data.
func (p PersistentData) ResetSectionData() { p.store.Reset(p.Section) }

// ResetTrackData drops the track's data.
func (p PersistentData) ResetTrackData() { p.store.Reset(p.Track) }

// SectionDataAs returns the section's data as T.
func SectionDataAs[T any](p PersistentData) (T, bool) {
	v, ok := p.SectionData()
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
