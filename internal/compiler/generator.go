package compiler

import (
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/hierarchy"
	"moviescene/internal/logging"
	"moviescene/internal/segment"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// Generator builds evaluation templates from authored sequences.
type Generator struct {
	arena   *sequence.Arena
	store   template.Store
	factory TemplateFactory
	opts    Options
	logger  *slog.Logger

	subData    map[uuid.UUID]hierarchy.SubSequenceData
	generating map[sequence.Handle]bool
}

// NewGenerator returns a generator resolving nested sequences through arena
// and their templates through store.
func NewGenerator(arena *sequence.Arena, store template.Store, factory TemplateFactory, opts Options) *Generator {
	return &Generator{
		arena:      arena,
		store:      store,
		factory:    factory,
		opts:       opts,
		logger:     logging.NewComponentLogger(opts.Logger, "generator"),
		subData:    make(map[uuid.UUID]hierarchy.SubSequenceData),
		generating: make(map[sequence.Handle]bool),
	}
}

// generation accumulates what one Generate call changed.
type generation struct {
	live    map[uuid.UUID]bool
	touched timerange.Range
	added   int
	removed int
}

func (g *generation) touch(r timerange.Range) {
	g.touched = timerange.Hull(g.touched, r)
}

// Generate brings tmpl up to date with seq. Tracks whose signature is
// already in the template are kept as they are; new tracks are generated,
// tracks no longer authored are dropped, and the field is invalidated over
// every range those changes touch.
func (g *Generator) Generate(tmpl *template.Template, seq *sequence.Sequence) {
	h := seq.Handle()
	if g.generating[h] {
		g.logger.Warn("sequence nests itself; skipping regeneration",
			slog.String(logging.FieldSequence, seq.Name))
		g.opts.Metrics.CycleSkipped()
		return
	}
	g.generating[h] = true
	defer delete(g.generating, h)

	gen := &generation{live: make(map[uuid.UUID]bool), touched: timerange.Empty()}
	for _, track := range seq.MasterTracks() {
		g.processTrack(tmpl, BindingContext{}, track, gen)
	}
	for _, b := range seq.Bindings() {
		ctx := BindingContext{Binding: b.ID, Name: b.Name, Spawnable: b.Spawnable}
		for _, track := range b.Tracks() {
			g.processTrack(tmpl, ctx, track, gen)
		}
	}
	for _, sig := range tmpl.SourceSignatures() {
		if !gen.live[sig] {
			gen.touch(tmpl.RemoveTrack(sig))
			gen.removed++
		}
	}
	tmpl.RebuildTrackField()

	gen.touch(g.processSubTracks(tmpl, seq))

	deps := make(map[sequence.Handle]uuid.UUID)
	tmpl.Hierarchy().Reset()
	g.addSubSequences(tmpl.Hierarchy(), seq, subScope{
		id:             evalcontext.RootSequenceID,
		rootToSequence: evalcontext.Identity(),
	}, deps, map[sequence.Handle]bool{h: true})
	tmpl.SetDependencies(deps)

	invalidated := 0
	if !gen.touched.IsEmpty() {
		invalidated = tmpl.Field().Invalidate(gen.touched)
		g.opts.Metrics.FieldInvalidated(invalidated)
	}
	tmpl.SequenceSignature = seq.Signature()
	seeded := tmpl.ApplySeed()

	g.opts.Metrics.TemplateGenerated(seq.Name)
	g.logger.Debug("generated template",
		slog.String(logging.FieldSequence, seq.Name),
		slog.Int("tracks_added", gen.added),
		slog.Int("tracks_removed", gen.removed),
		slog.Int("sub_sequences", tmpl.Hierarchy().Len()),
		slog.Int("field_entries_invalidated", invalidated),
		slog.Bool("seeded", seeded),
		slog.String(logging.FieldRange, gen.touched.String()),
	)
}

func (g *Generator) processTrack(tmpl *template.Template, ctx BindingContext, track *sequence.Track, gen *generation) {
	if track.IsSubTrack() {
		return
	}
	sig := track.Signature()
	gen.live[sig] = true
	if _, ok := tmpl.FindTrackBySignature(sig); ok {
		return
	}
	et := g.buildTrack(ctx, track)
	tmpl.AddTrack(et)
	gen.added++
	for _, r := range et.FieldRanges() {
		gen.touch(r)
	}
}

func (g *Generator) buildTrack(ctx BindingContext, track *sequence.Track) *evaltrack.Track {
	et := evaltrack.New(track.Name)
	et.SourceSignature = track.Signature()
	et.ObjectBinding = ctx.Binding
	et.EvaluationPriority = track.EvaluationPriority
	et.Method = track.Method
	et.EvaluationGroup = track.EvaluationGroup
	et.EvaluateInPreRoll = track.EvaluateInPreRoll
	et.EvaluateInPostRoll = track.EvaluateInPostRoll
	et.RowBlender, et.TrackBlender = Blenders(track.Blending)
	if g.factory != nil {
		et.Impl = g.factory.TrackImplementation(ctx, track)
	}

	for _, s := range track.Sections() {
		var st evaltrack.SectionTemplate
		if g.factory != nil {
			st = g.factory.SectionTemplate(ctx, track, s)
		}
		if st == nil && et.Impl == nil {
			continue
		}
		impl := et.AddSection(evaltrack.Section{
			Name:     s.Name,
			Template: st,
			Range:    s.Range,
			Properties: segment.SectionProperties{
				Row:             s.Row,
				OverlapPriority: s.OverlapPriority,
				Start:           s.Range.Lower,
				Blendable:       s.Blendable,
			},
		})
		et.AddSectionRanges(impl, s.Range, s.PreRollRange(), s.PostRollRange())
	}
	return et
}

// subScope is the position in the flattened hierarchy sub-sequences are
// being added under.
type subScope struct {
	id             evalcontext.SequenceID
	rootToSequence evalcontext.TimeTransform
	bias           int
	path           string
}

// addSubSequences adds every sub-section of seq to h below scope, then
// recurses into the nested sequences so that the whole tree below the root
// is flattened with accumulated IDs, transforms and biases.
func (g *Generator) addSubSequences(h *hierarchy.Hierarchy, seq *sequence.Sequence, scope subScope, deps map[sequence.Handle]uuid.UUID, visiting map[sequence.Handle]bool) {
	for _, s := range subSections(seq) {
		child, ok := g.arena.Resolve(s.Sub.Sequence)
		if !ok {
			g.logger.Debug("sub-section references a missing sequence",
				slog.String(logging.FieldSection, s.Name))
			continue
		}
		if visiting[child.Handle()] {
			g.logger.Warn("sub-sequence cycle skipped",
				slog.String(logging.FieldSequence, seq.Name),
				slog.String(logging.FieldSection, s.Name),
				slog.String("child", child.Name))
			g.opts.Metrics.CycleSkipped()
			continue
		}

		local := g.localSubData(s, child)
		id := local.DeterministicID.Accumulate(scope.id)
		data := local
		data.RootToSequence = scope.rootToSequence.Then(local.RootToSequence)
		data.HierarchicalBias = scope.bias + local.HierarchicalBias
		data.SectionPath = joinPath(scope.path, local.SectionPath)
		h.Add(data, id, scope.id)

		deps[child.Handle()] = child.Signature()
		g.ensure(child)

		visiting[child.Handle()] = true
		g.addSubSequences(h, child, subScope{
			id:             id,
			rootToSequence: data.RootToSequence,
			bias:           data.HierarchicalBias,
			path:           data.SectionPath,
		}, deps, visiting)
		delete(visiting, child.Handle())
	}
}

// localSubData returns the sub-sequence data of s relative to its own
// sequence, cached by section signature.
func (g *Generator) localSubData(s *sequence.Section, child *sequence.Sequence) hierarchy.SubSequenceData {
	if d, ok := g.subData[s.Signature()]; ok && d.Sequence == child.Handle() {
		return d
	}
	start := 0.0
	if s.Range.Lower.IsClosed() {
		start = s.Range.Lower.Value
	}
	inner := s.Sub.InnerTransform(start)
	d := hierarchy.SubSequenceData{
		Sequence:         child.Handle(),
		DeterministicID:  evalcontext.SequenceIDFromGUID(s.ID),
		RootToSequence:   inner,
		PlayRange:        inner.ApplyRange(s.Range),
		PreRollRange:     inner.ApplyRange(s.PreRollRange()),
		PostRollRange:    inner.ApplyRange(s.PostRollRange()),
		HierarchicalBias: s.Sub.HierarchicalBias,
		SectionSignature: s.Signature(),
		SectionPath:      s.Name,
	}
	g.subData[s.Signature()] = d
	return d
}

// ensure regenerates child's template if it is stale.
func (g *Generator) ensure(child *sequence.Sequence) *template.Template {
	tmpl := g.store.AccessTemplate(child)
	if !g.generating[child.Handle()] && tmpl.IsStale(g.arena.Resolve) {
		g.Generate(tmpl, child)
	}
	return tmpl
}

// subSections returns every section of seq that nests a sequence, master
// tracks first, in authored order.
func subSections(seq *sequence.Sequence) []*sequence.Section {
	var out []*sequence.Section
	collect := func(tracks []*sequence.Track) {
		for _, t := range tracks {
			for _, s := range t.Sections() {
				if s.Sub != nil {
					out = append(out, s)
				}
			}
		}
	}
	collect(seq.MasterTracks())
	for _, b := range seq.Bindings() {
		collect(b.Tracks())
	}
	return out
}

func subTracks(seq *sequence.Sequence) []*sequence.Track {
	var out []*sequence.Track
	for _, t := range seq.MasterTracks() {
		if t.IsSubTrack() {
			out = append(out, t)
		}
	}
	for _, b := range seq.Bindings() {
		out = append(out, slices.DeleteFunc(slices.Clone(b.Tracks()), func(t *sequence.Track) bool {
			return !t.IsSubTrack()
		})...)
	}
	return out
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
