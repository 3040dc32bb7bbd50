package templates

import (
	"moviescene/internal/evalcontext"
	"moviescene/internal/player"
	"moviescene/internal/timerange"
)

// Trace reports every hook it receives to the player's tracer. It is the
// template tests use to observe evaluation order.
type Trace struct {
	Label string
	Mode  evalcontext.CompletionMode
}

func trace(p evalcontext.Player, e player.TraceEntry) {
	if tr, ok := p.(player.Tracer); ok {
		tr.Trace(e)
	}
}

// Evaluate pushes a token that traces the evaluation when applied.
func (t Trace) Evaluate(_ evalcontext.Operand, ctx evalcontext.Context, data evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens) {
	entry := player.TraceEntry{Key: data.Section, Kind: "evaluate", Time: ctx.Time, Detail: t.Label, PreRoll: ctx.IsPreRoll()}
	tokens.Add(evalcontext.TokenFunc(func(_ evalcontext.Operand, _ evalcontext.PersistentData, p evalcontext.Player) {
		trace(p, entry)
	}))
}

// EvaluateSwept pushes a token tracing the swept range.
func (t Trace) EvaluateSwept(_ evalcontext.Operand, ctx evalcontext.Context, r timerange.Range, data evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens) {
	entry := player.TraceEntry{Key: data.Section, Kind: "swept", Time: ctx.Time, Detail: t.Label + " " + r.String(), PreRoll: ctx.IsPreRoll()}
	tokens.Add(evalcontext.TokenFunc(func(_ evalcontext.Operand, _ evalcontext.PersistentData, p evalcontext.Player) {
		trace(p, entry)
	}))
}

// Initialize traces immediately.
func (t Trace) Initialize(_ evalcontext.Operand, ctx evalcontext.Context, data evalcontext.PersistentData, p evalcontext.Player) {
	trace(p, player.TraceEntry{Key: data.Section, Kind: "initialize", Time: ctx.Time, Detail: t.Label, PreRoll: ctx.IsPreRoll()})
}

// Setup traces immediately.
func (t Trace) Setup(data evalcontext.PersistentData, p evalcontext.Player) {
	trace(p, player.TraceEntry{Key: data.Section, Kind: "setup", Detail: t.Label})
}

// TearDown traces immediately.
func (t Trace) TearDown(data evalcontext.PersistentData, p evalcontext.Player) {
	trace(p, player.TraceEntry{Key: data.Section, Kind: "teardown", Detail: t.Label})
}

// CompletionMode implements evaltrack.CompletionModer.
func (t Trace) CompletionMode() evalcontext.CompletionMode { return t.Mode }
