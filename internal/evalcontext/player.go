package evalcontext

import "github.com/google/uuid"

// CompletionMode decides what happens to animated state when the entity that
// produced it stops evaluating.
type CompletionMode uint8

const (
	KeepState CompletionMode = iota
	RestoreState
)

func (m CompletionMode) String() string {
	if m == RestoreState {
		return "restore"
	}
	return "keep"
}

// RestoreFunc puts an object back the way it was before it was animated.
type RestoreFunc func()

// PreAnimatedState captures object state before animation so that it can be
// restored when the animating entity finishes.
type PreAnimatedState interface {
	// SetCaptureEntity scopes subsequent SaveState calls to key.
	SetCaptureEntity(key EvaluationKey, mode CompletionMode)
	// SaveState records restore against the capture entity for object the
	// first time that object is animated by it.
	SaveState(object any, restore RestoreFunc)
	// RestorePreAnimatedState restores everything captured for key.
	RestorePreAnimatedState(key EvaluationKey)
	// RestoreAll restores every captured state.
	RestoreAll()
}

// SpawnRegister owns objects spawned by sequences.
type SpawnRegister interface {
	SpawnObject(binding uuid.UUID, seq SequenceID, p Player) any
	DestroySpawnedObject(binding uuid.UUID, seq SequenceID, p Player)
	OnSequenceExpired(seq SequenceID, p Player)
}

// Player is the host that evaluation runs inside.
type Player interface {
	// BoundObjects returns the runtime objects op refers to.
	BoundObjects(op Operand) []any
	PreAnimatedState() PreAnimatedState
	SpawnRegister() SpawnRegister
}
