package player

import (
	"log/slog"

	"moviescene/internal/evalcontext"
	"moviescene/internal/logging"
)

type savedState struct {
	object  any
	restore evalcontext.RestoreFunc
}

// PreAnimatedStore records how objects looked before they were animated.
type PreAnimatedStore struct {
	logger   *slog.Logger
	key      evalcontext.EvaluationKey
	mode     evalcontext.CompletionMode
	entities map[evalcontext.EvaluationKey][]savedState
	global   []savedState
	restored int
}

// NewPreAnimatedStore returns an empty store.
func NewPreAnimatedStore(logger *slog.Logger) *PreAnimatedStore {
	logger = logging.OrNop(logger)
	return &PreAnimatedStore{logger: logger, entities: make(map[evalcontext.EvaluationKey][]savedState)}
}

// SetCaptureEntity implements evalcontext.PreAnimatedState.
func (s *PreAnimatedStore) SetCaptureEntity(key evalcontext.EvaluationKey, mode evalcontext.CompletionMode) {
	s.key = key
	s.mode = mode
}

// SaveState implements evalcontext.PreAnimatedState. The first state seen
// for an object is kept globally. Capture entities that restore state on
// completion record that original state, even when another entity
// animated the object first.
func (s *PreAnimatedStore) SaveState(object any, restore evalcontext.RestoreFunc) {
	original := findRestore(s.global, object)
	if original == nil {
		s.global = append(s.global, savedState{object: object, restore: restore})
		original = restore
	}
	if s.mode != evalcontext.RestoreState {
		return
	}
	saved := s.entities[s.key]
	if findRestore(saved, object) != nil {
		return
	}
	s.entities[s.key] = append(saved, savedState{object: object, restore: original})
}

func findRestore(saved []savedState, object any) evalcontext.RestoreFunc {
	for _, st := range saved {
		if st.object == object {
			return st.restore
		}
	}
	return nil
}

// heldElsewhere reports whether an entity other than key still holds
// captured state for object.
func (s *PreAnimatedStore) heldElsewhere(key evalcontext.EvaluationKey, object any) bool {
	for k, saved := range s.entities {
		if k != key && findRestore(saved, object) != nil {
			return true
		}
	}
	return false
}

// RestorePreAnimatedState implements evalcontext.PreAnimatedState. Objects
// still animated by another capturing entity are left alone; that entity
// restores them when it completes.
func (s *PreAnimatedStore) RestorePreAnimatedState(key evalcontext.EvaluationKey) {
	saved, ok := s.entities[key]
	if !ok {
		return
	}
	delete(s.entities, key)
	restored := 0
	for i := len(saved) - 1; i >= 0; i-- {
		if s.heldElsewhere(key, saved[i].object) {
			continue
		}
		saved[i].restore()
		s.restored++
		restored++
	}
	s.logger.Debug("restored pre-animated state",
		slog.String("entity", key.String()),
		slog.Int("objects", restored),
		slog.Int("held", len(saved)-restored))
}

// RestoreAll implements evalcontext.PreAnimatedState.
func (s *PreAnimatedStore) RestoreAll() {
	for key := range s.entities {
		s.RestorePreAnimatedState(key)
	}
	for i := len(s.global) - 1; i >= 0; i-- {
		s.global[i].restore()
		s.restored++
	}
	s.global = nil
}

// Captured reports whether state is held for key.
func (s *PreAnimatedStore) Captured(key evalcontext.EvaluationKey) bool {
	_, ok := s.entities[key]
	return ok
}

// Restored returns the number of restore calls made so far.
func (s *PreAnimatedStore) Restored() int { return s.restored }
