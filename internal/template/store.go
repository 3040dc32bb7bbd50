package template

import (
	"moviescene/internal/sequence"
)

// Store provides the template for a sequence. Whether templates survive
// between calls, or between processes, is up to the implementation.
type Store interface {
	AccessTemplate(seq *sequence.Sequence) *Template
}

// EphemeralStore keeps templates in memory for as long as it lives.
type EphemeralStore struct {
	templates map[sequence.Handle]*Template
}

// NewEphemeralStore returns an empty store.
func NewEphemeralStore() *EphemeralStore {
	return &EphemeralStore{templates: make(map[sequence.Handle]*Template)}
}

// AccessTemplate returns seq's template, creating an empty one on first use.
func (s *EphemeralStore) AccessTemplate(seq *sequence.Sequence) *Template {
	if s.templates == nil {
		s.templates = make(map[sequence.Handle]*Template)
	}
	h := seq.Handle()
	tmpl, ok := s.templates[h]
	if !ok {
		tmpl = New(h)
		s.templates[h] = tmpl
	}
	return tmpl
}

// Lookup returns the template held for h without creating one.
func (s *EphemeralStore) Lookup(h sequence.Handle) (*Template, bool) {
	tmpl, ok := s.templates[h]
	return tmpl, ok
}

// Forget drops the template held for h.
func (s *EphemeralStore) Forget(h sequence.Handle) {
	delete(s.templates, h)
}

// Len returns the number of templates held.
func (s *EphemeralStore) Len() int { return len(s.templates) }

// Templates returns every held template keyed by sequence handle.
func (s *EphemeralStore) Templates() map[sequence.Handle]*Template { return s.templates }
