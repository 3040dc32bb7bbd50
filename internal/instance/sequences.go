package instance

import (
	"moviescene/internal/evalcontext"
	"moviescene/internal/hierarchy"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// sequenceInstance is one sequence instance as seen from the real root.
type sequenceInstance struct {
	id   evalcontext.SequenceID
	tmpl *template.Template
	// data is zero for the root itself.
	data   hierarchy.SubSequenceData
	isRoot bool
}

// context re-expresses the root context ctx in the instance's local time.
func (s sequenceInstance) context(ctx evalcontext.Context) evalcontext.Context {
	if s.isRoot {
		return ctx
	}
	local := ctx.WithTransform(s.data.RootToSequence).WithBias(s.data.HierarchicalBias)
	switch {
	case s.data.PreRollRange.Contains(local.Time):
		return local.WithRoll(true, false).Clamp(s.data.PreRollRange)
	case s.data.PostRollRange.Contains(local.Time):
		return local.WithRoll(false, true).Clamp(s.data.PostRollRange)
	case !s.data.PlayRange.IsEmpty():
		return local.Clamp(timerange.Hull(s.data.PlayRange, timerange.Point(local.Time)))
	}
	return local
}

// bindInstances recreates the transient instance table for every sequence
// in ids. Instances the hierarchy no longer knows keep their entry from the
// previous frame so that they can still be torn down.
func (i *Instance) bindInstances(ids ...[]evalcontext.SequenceID) {
	prev := i.instances
	i.instances = make(map[evalcontext.SequenceID]sequenceInstance, len(prev))
	for _, list := range ids {
		for _, id := range list {
			if _, ok := i.instances[id]; ok {
				continue
			}
			if inst, ok := i.resolveInstance(id); ok {
				i.instances[id] = inst
				continue
			}
			if inst, ok := prev[id]; ok {
				i.instances[id] = inst
			}
		}
	}
}

// resolveInstance finds id in the root's current hierarchy.
func (i *Instance) resolveInstance(id evalcontext.SequenceID) (sequenceInstance, bool) {
	if id == evalcontext.RootSequenceID {
		return sequenceInstance{id: id, tmpl: i.rootTmpl, isRoot: true}, true
	}
	data, ok := i.rootTmpl.Hierarchy().FindSubData(id)
	if !ok {
		return sequenceInstance{}, false
	}
	tmpl, ok := i.compiler.AccessHandle(data.Sequence)
	if !ok {
		return sequenceInstance{}, false
	}
	return sequenceInstance{id: id, tmpl: tmpl, data: data}, true
}

func (i *Instance) instance(id evalcontext.SequenceID) (sequenceInstance, bool) {
	if inst, ok := i.instances[id]; ok {
		return inst, true
	}
	inst, ok := i.resolveInstance(id)
	if ok {
		i.instances[id] = inst
	}
	return inst, ok
}
