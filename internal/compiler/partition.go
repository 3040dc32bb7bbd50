package compiler

import (
	"slices"

	"moviescene/internal/evalcontext"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// partition splits the timeline into pieces over which nothing compiled
// into tmpl's hierarchy changes: every boundary of every tree and segment,
// mapped to root time, bounds a piece, and the boundary values themselves
// are pieces of their own.
func (c *Compiler) partition(tmpl *template.Template) []timerange.Range {
	var values []float64
	collect := func(t *template.Template, toRoot evalcontext.TimeTransform) {
		add := func(r timerange.Range) {
			for _, b := range []timerange.Bound{r.Lower, r.Upper} {
				if b.IsClosed() {
					values = append(values, toRoot.Apply(b.Value))
				}
			}
		}
		for r := range t.TrackField().Ranges() {
			add(r)
		}
		for r := range t.SubSectionField().Ranges() {
			add(r)
		}
		for _, id := range t.TrackIDs() {
			track, _ := t.FindTrack(id)
			track.CompileAll()
			for _, seg := range track.SortedSegments() {
				add(seg.Range)
			}
		}
	}

	collect(tmpl, evalcontext.Identity())
	for _, id := range tmpl.Hierarchy().IDs() {
		data, _ := tmpl.Hierarchy().FindSubData(id)
		child, ok := c.arena.Resolve(data.Sequence)
		if !ok {
			continue
		}
		collect(c.Access(child), data.RootToSequence.Inverse())
	}

	slices.Sort(values)
	values = slices.Compact(values)
	return pieces(values)
}

func pieces(values []float64) []timerange.Range {
	if len(values) == 0 {
		return []timerange.Range{timerange.All()}
	}
	out := []timerange.Range{timerange.New(timerange.OpenBound(), timerange.ExclusiveBound(values[0]))}
	for i, v := range values {
		out = append(out, timerange.Point(v))
		if i+1 < len(values) {
			out = append(out, timerange.New(timerange.ExclusiveBound(v), timerange.ExclusiveBound(values[i+1])))
		}
	}
	return append(out, timerange.New(timerange.ExclusiveBound(values[len(values)-1]), timerange.OpenBound()))
}

// sampleTime returns a time inside non-empty r.
func sampleTime(r timerange.Range) float64 {
	lo, hi := r.Lower, r.Upper
	switch {
	case lo.IsInclusive():
		return lo.Value
	case hi.IsInclusive():
		return hi.Value
	case lo.IsClosed() && hi.IsClosed():
		return lo.Value + (hi.Value-lo.Value)/2
	case lo.IsClosed():
		return lo.Value + 1
	case hi.IsClosed():
		return hi.Value - 1
	default:
		return 0
	}
}
