package player

import (
	"log/slog"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/logging"
)

// TraceEntry is one report made by a template.
type TraceEntry struct {
	Key     evalcontext.EvaluationKey
	Kind    string
	Time    float64
	Detail  string
	PreRoll bool
}

// Tracer receives reports from templates that trace their evaluation.
type Tracer interface {
	Trace(TraceEntry)
}

// Memory is an in-memory evalcontext.Player.
type Memory struct {
	logger   *slog.Logger
	bindings map[uuid.UUID][]*Object
	state    *PreAnimatedStore
	spawns   *SpawnRegister
	trace    []TraceEntry
}

var _ evalcontext.Player = (*Memory)(nil)

// NewMemory returns an empty player.
func NewMemory(logger *slog.Logger) *Memory {
	logger = logging.OrNop(logger)
	return &Memory{
		logger:   logger,
		bindings: make(map[uuid.UUID][]*Object),
		state:    NewPreAnimatedStore(logger),
		spawns:   NewSpawnRegister(logger),
	}
}

// Bind attaches objects to binding in every sequence.
func (m *Memory) Bind(binding uuid.UUID, objects ...*Object) {
	m.bindings[binding] = append(m.bindings[binding], objects...)
}

// BoundObjects implements evalcontext.Player. Objects spawned for the operand
// take precedence over statically bound ones.
func (m *Memory) BoundObjects(op evalcontext.Operand) []any {
	if obj, ok := m.spawns.Object(op.ObjectBinding, op.SequenceID); ok {
		return []any{obj}
	}
	objs := m.bindings[op.ObjectBinding]
	out := make([]any, len(objs))
	for i, o := range objs {
		out[i] = o
	}
	return out
}

// PreAnimatedState implements evalcontext.Player.
func (m *Memory) PreAnimatedState() evalcontext.PreAnimatedState { return m.state }

// SpawnRegister implements evalcontext.Player.
func (m *Memory) SpawnRegister() evalcontext.SpawnRegister { return m.spawns }

// States returns the concrete pre-animated state store.
func (m *Memory) States() *PreAnimatedStore { return m.state }

// Spawns returns the concrete spawn register.
func (m *Memory) Spawns() *SpawnRegister { return m.spawns }

// Trace implements Tracer.
func (m *Memory) Trace(e TraceEntry) {
	m.trace = append(m.trace, e)
}

// TraceLog returns every trace entry recorded so far.
func (m *Memory) TraceLog() []TraceEntry { return m.trace }

// ResetTrace clears the trace log.
func (m *Memory) ResetTrace() { m.trace = nil }
