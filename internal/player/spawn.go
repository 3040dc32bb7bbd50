package player

import (
	"log/slog"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/logging"
)

type spawnKey struct {
	binding uuid.UUID
	seq     evalcontext.SequenceID
}

// SpawnRegister creates objects for spawnable bindings and destroys them when
// their sequence expires.
type SpawnRegister struct {
	logger     *slog.Logger
	spawnables map[uuid.UUID]map[string]float64
	names      map[uuid.UUID]string
	live       map[spawnKey]*Object
	destroyed  int
}

// NewSpawnRegister returns an empty register.
func NewSpawnRegister(logger *slog.Logger) *SpawnRegister {
	logger = logging.OrNop(logger)
	return &SpawnRegister{
		logger:     logger,
		spawnables: make(map[uuid.UUID]map[string]float64),
		names:      make(map[uuid.UUID]string),
		live:       make(map[spawnKey]*Object),
	}
}

// Define registers binding as spawnable with the given name and initial
// properties.
func (r *SpawnRegister) Define(binding uuid.UUID, name string, props map[string]float64) {
	r.spawnables[binding] = props
	r.names[binding] = name
}

// SpawnObject implements evalcontext.SpawnRegister. Spawning an object that is
// already live returns the existing object.
func (r *SpawnRegister) SpawnObject(binding uuid.UUID, seq evalcontext.SequenceID, _ evalcontext.Player) any {
	k := spawnKey{binding: binding, seq: seq}
	if obj, ok := r.live[k]; ok {
		return obj
	}
	props, ok := r.spawnables[binding]
	if !ok {
		return nil
	}
	obj := NewObject(r.names[binding], props)
	obj.Spawned = true
	r.live[k] = obj
	r.logger.Debug("spawned object", slog.String("object", obj.Name), slog.String("sequence", seq.String()))
	return obj
}

// DestroySpawnedObject implements evalcontext.SpawnRegister.
func (r *SpawnRegister) DestroySpawnedObject(binding uuid.UUID, seq evalcontext.SequenceID, _ evalcontext.Player) {
	k := spawnKey{binding: binding, seq: seq}
	obj, ok := r.live[k]
	if !ok {
		return
	}
	delete(r.live, k)
	r.destroyed++
	r.logger.Debug("destroyed spawned object", slog.String("object", obj.Name), slog.String("sequence", seq.String()))
}

// OnSequenceExpired implements evalcontext.SpawnRegister by destroying every
// object spawned by seq.
func (r *SpawnRegister) OnSequenceExpired(seq evalcontext.SequenceID, p evalcontext.Player) {
	for k := range r.live {
		if k.seq == seq {
			r.DestroySpawnedObject(k.binding, seq, p)
		}
	}
}

// Object returns the live object spawned for binding in seq.
func (r *SpawnRegister) Object(binding uuid.UUID, seq evalcontext.SequenceID) (*Object, bool) {
	obj, ok := r.live[spawnKey{binding: binding, seq: seq}]
	return obj, ok
}

// Live returns the number of live spawned objects.
func (r *SpawnRegister) Live() int { return len(r.live) }

// Destroyed returns the number of objects destroyed so far.
func (r *SpawnRegister) Destroyed() int { return r.destroyed }
