package compiler

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/field"
	"moviescene/internal/segment"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// gathered is one track segment found applying at the compiled time.
type gathered struct {
	ptr           field.SegmentPtr
	group         string
	groupPriority int
	bias          int
	priority      int
	requiresInit  bool
	impls         []int
}

// compareGathered is the evaluation order: group priority descending, then
// hierarchical bias ascending, then track priority descending.
func compareGathered(a, b gathered) int {
	if c := cmp.Compare(b.groupPriority, a.groupPriority); c != 0 {
		return c
	}
	if c := cmp.Compare(a.bias, b.bias); c != 0 {
		return c
	}
	return cmp.Compare(b.priority, a.priority)
}

type gatherState struct {
	root       *template.Template
	rootTime   float64
	entries    []gathered
	valid      timerange.Range
	sequences  []evalcontext.SequenceID
	signatures map[evalcontext.SequenceID]uuid.UUID
}

// level is one sequence instance being gathered.
type level struct {
	id             evalcontext.SequenceID
	rootToSequence evalcontext.TimeTransform
	bias           int
	flags          segment.Flags
}

// GatherCompileOnTheFlyData collects everything that evaluates at root time
// t across tmpl's hierarchy and lays it out as a field entry. The entry's
// range is the widest range around t over which the same content applies,
// and always contains t.
func (c *Compiler) GatherCompileOnTheFlyData(tmpl *template.Template, t float64) Result {
	st := &gatherState{
		root:       tmpl,
		rootTime:   t,
		valid:      timerange.All(),
		signatures: make(map[evalcontext.SequenceID]uuid.UUID),
	}
	c.gather(st, tmpl, level{id: evalcontext.RootSequenceID, rootToSequence: evalcontext.Identity()})
	slices.SortStableFunc(st.entries, compareGathered)

	group, ordered := layoutGroup(st.entries)
	meta := field.Metadata{
		ActiveSequences: st.sequences,
		ActiveEntities:  entityKeys(ordered),
	}
	if len(st.signatures) > 0 {
		meta.SubTemplateSignatures = st.signatures
	}
	meta.Normalize()

	return Result{
		Range:    timerange.Hull(st.valid, timerange.Point(t)),
		Group:    group,
		Metadata: meta,
	}
}

func (c *Compiler) gather(st *gatherState, tmpl *template.Template, lvl level) {
	localTime := lvl.rootToSequence.Apply(st.rootTime)
	toRoot := lvl.rootToSequence.Inverse()
	clip := func(local timerange.Range) {
		st.valid = timerange.Intersection(st.valid, toRoot.ApplyRange(local))
	}
	st.sequences = append(st.sequences, lvl.id)

	if it := tmpl.TrackField().IterateFromTime(localTime); it.Valid() {
		clip(it.Range())
		for _, id := range it.Data() {
			track, ok := tmpl.FindTrack(id)
			if !ok || !track.MatchesRoll(lvl.flags.IsPreRoll(), lvl.flags.IsPostRoll()) {
				continue
			}
			seg, ok := track.Segment(track.GetSegmentFromTime(localTime))
			if !ok {
				continue
			}
			clip(seg.Range)
			st.entries = append(st.entries, gathered{
				ptr:           field.SegmentPtr{SequenceID: lvl.id, TrackID: id, SegmentID: seg.ID},
				group:         track.EvaluationGroup,
				groupPriority: c.opts.groupPriority(track.EvaluationGroup),
				bias:          lvl.bias,
				priority:      track.EvaluationPriority,
				requiresInit:  track.RequiresInitialization(),
				impls:         implIndices(seg),
			})
		}
	}

	it := tmpl.SubSectionField().IterateFromTime(localTime)
	if !it.Valid() {
		return
	}
	clip(it.Range())
	seen := make(map[evalcontext.SequenceID]bool)
	for _, e := range it.Data() {
		childID := e.ID.Accumulate(lvl.id)
		if seen[childID] {
			continue
		}
		seen[childID] = true
		data, ok := st.root.Hierarchy().FindSubData(childID)
		if !ok {
			continue
		}
		child, ok := c.arena.Resolve(data.Sequence)
		if !ok {
			continue
		}
		st.signatures[childID] = child.Signature()
		c.gather(st, c.Access(child), level{
			id:             childID,
			rootToSequence: data.RootToSequence,
			bias:           data.HierarchicalBias,
			flags:          lvl.flags | e.Flags,
		})
	}
}

func implIndices(seg segment.Segment) []int {
	out := make([]int, 0, len(seg.Impls))
	for _, d := range seg.Impls {
		if !slices.Contains(out, d.ImplIndex) {
			out = append(out, d.ImplIndex)
		}
	}
	return out
}

// layoutGroup partitions sorted entries into one flush block per named
// evaluation group, in order of each group's first entry. It returns the
// group and the entries in the order their eval pointers were laid out.
func layoutGroup(entries []gathered) (field.Group, []gathered) {
	var names []string
	byName := make(map[string][]gathered)
	for _, e := range entries {
		if _, ok := byName[e.group]; !ok {
			names = append(names, e.group)
		}
		byName[e.group] = append(byName[e.group], e)
	}

	var b field.GroupBuilder
	ordered := make([]gathered, 0, len(entries))
	for _, name := range names {
		block := byName[name]
		var init, eval []field.SegmentPtr
		for _, e := range block {
			if e.requiresInit {
				init = append(init, e.ptr)
			}
			eval = append(eval, e.ptr)
		}
		b.AddBlock(name, init, eval)
		ordered = append(ordered, block...)
	}
	return b.Group(), ordered
}

// entityKeys tags every track and section key with the order it is first
// evaluated in.
func entityKeys(ordered []gathered) []evalcontext.OrderedKey {
	var out []evalcontext.OrderedKey
	var index uint32
	for _, e := range ordered {
		key := e.ptr.TrackKey()
		out = append(out, evalcontext.OrderedKey{Key: key, EvaluationIndex: index})
		index++
		for _, impl := range e.impls {
			out = append(out, evalcontext.OrderedKey{Key: key.AsSection(impl), EvaluationIndex: index})
			index++
		}
	}
	return out
}
