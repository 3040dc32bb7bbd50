package templates

import (
	"fmt"

	"moviescene/internal/evalcontext"
	"moviescene/internal/player"
	"moviescene/internal/sequence"
	"moviescene/internal/timerange"
)

// Event fires discrete events as playback sweeps over them.
type Event struct {
	Name   string
	Events []sequence.Key
}

// Evaluate fires the events at exactly ctx.Time, for jumps and
// non-swept tracks.
func (e Event) Evaluate(op evalcontext.Operand, ctx evalcontext.Context, data evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens) {
	e.EvaluateSwept(op, ctx, timerange.Point(ctx.Time), data, tokens)
}

// EvaluateSwept fires every event inside r, in the direction of playback.
func (e Event) EvaluateSwept(_ evalcontext.Operand, ctx evalcontext.Context, r timerange.Range, data evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens) {
	var fired []sequence.Key
	for _, ev := range e.Events {
		if r.Contains(ev.Time) {
			fired = append(fired, ev)
		}
	}
	if ctx.Direction == evalcontext.Backwards {
		for i, j := 0, len(fired)-1; i < j; i, j = i+1, j-1 {
			fired[i], fired[j] = fired[j], fired[i]
		}
	}
	key := data.Section
	for _, ev := range fired {
		entry := player.TraceEntry{
			Key:    key,
			Kind:   "event",
			Time:   ev.Time,
			Detail: fmt.Sprintf("%s=%g", e.Name, ev.Value),
		}
		tokens.Add(evalcontext.TokenFunc(func(_ evalcontext.Operand, _ evalcontext.PersistentData, p evalcontext.Player) {
			trace(p, entry)
		}))
	}
}
