package templates

import (
	"sort"

	"moviescene/internal/evalcontext"
	"moviescene/internal/player"
	"moviescene/internal/sequence"
)

// Property animates one float property of every bound object along a
// linearly interpolated key curve.
type Property struct {
	Name string
	Keys []sequence.Key
	Mode evalcontext.CompletionMode
}

// ValueAt samples the curve at t, holding the first and last keys.
func (p Property) ValueAt(t float64) (float64, bool) {
	n := len(p.Keys)
	if n == 0 {
		return 0, false
	}
	i := sort.Search(n, func(i int) bool { return p.Keys[i].Time > t })
	switch {
	case i == 0:
		return p.Keys[0].Value, true
	case i == n:
		return p.Keys[n-1].Value, true
	}
	a, b := p.Keys[i-1], p.Keys[i]
	if b.Time == a.Time {
		return b.Value, true
	}
	alpha := (t - a.Time) / (b.Time - a.Time)
	return a.Value + (b.Value-a.Value)*alpha, true
}

// Evaluate pushes a token setting the property on every bound object.
func (p Property) Evaluate(_ evalcontext.Operand, ctx evalcontext.Context, _ evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens) {
	v, ok := p.ValueAt(ctx.Time)
	if !ok {
		return
	}
	name := p.Name
	tokens.Add(evalcontext.TokenFunc(func(op evalcontext.Operand, _ evalcontext.PersistentData, pl evalcontext.Player) {
		state := pl.PreAnimatedState()
		for _, bound := range pl.BoundObjects(op) {
			obj, ok := bound.(*player.Object)
			if !ok {
				continue
			}
			old, had := obj.Property(name)
			state.SaveState(obj, func() {
				if had {
					obj.SetProperty(name, old)
				} else {
					obj.DeleteProperty(name)
				}
			})
			obj.SetProperty(name, v)
		}
	}))
}

// Interrogate reports the value the curve has at ctx.
func (p Property) Interrogate(ctx evalcontext.Context) map[string]float64 {
	v, ok := p.ValueAt(ctx.Time)
	if !ok {
		return nil
	}
	return map[string]float64{p.Name: v}
}

// CompletionMode implements evaltrack.CompletionModer.
func (p Property) CompletionMode() evalcontext.CompletionMode { return p.Mode }
