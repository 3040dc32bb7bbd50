package evaltrack

import (
	"slices"

	"moviescene/internal/evalcontext"
	"moviescene/internal/segment"
	"moviescene/internal/timerange"
)

func entryContext(ctx evalcontext.Context, d segment.SectionEvaluationData) evalcontext.Context {
	if d.HasForced {
		ctx = ctx.WithForcedTime(d.ForcedTime)
	}
	return ctx.WithRoll(d.IsPreRoll(), d.IsPostRoll())
}

func (t *Track) scope(f Frame, impl int) {
	if f.Tokens == nil {
		return
	}
	mode := evalcontext.KeepState
	if s, ok := t.Section(impl); ok {
		mode = s.CompletionMode()
	}
	f.Tokens.SetOperand(f.Operand)
	f.Tokens.SetTrack(f.Key)
	f.Tokens.SetScope(evalcontext.Scope{Key: f.Key.AsSection(impl), Completion: mode})
}

// Initialize runs the initialization pass for segment id.
func (t *Track) Initialize(id segment.ID, ctx evalcontext.Context, f Frame) {
	seg, ok := t.segments.Lookup(id)
	if !ok {
		return
	}
	if t.Impl != nil {
		if init, ok := t.Impl.(TrackInitializer); ok {
			init.InitializeTrack(t, seg, ctx, f)
		}
		return
	}
	for _, d := range seg.Impls {
		s, ok := t.Section(d.ImplIndex)
		if !ok {
			continue
		}
		init, ok := s.Template.(Initializer)
		if !ok {
			continue
		}
		init.Initialize(f.Operand, entryContext(ctx, d), f.SectionData(d.ImplIndex), f.Player)
	}
}

// Evaluate runs segment id, pushing tokens onto f.Tokens.
func (t *Track) Evaluate(id segment.ID, ctx evalcontext.Context, f Frame) {
	seg, ok := t.segments.Lookup(id)
	if !ok {
		return
	}
	if t.Impl != nil {
		if f.Tokens != nil {
			f.Tokens.SetOperand(f.Operand)
			f.Tokens.SetTrack(f.Key)
			f.Tokens.SetScope(evalcontext.Scope{Key: f.Key})
		}
		t.Impl.EvaluateTrack(t, seg, ctx, f)
		return
	}
	switch t.Method {
	case Swept:
		t.evaluateSwept(seg, ctx, f)
	default:
		t.evaluateStatic(seg, ctx, f)
	}
}

func (t *Track) evaluateStatic(seg segment.Segment, ctx evalcontext.Context, f Frame) {
	for _, d := range seg.Impls {
		s, ok := t.Section(d.ImplIndex)
		if !ok || s.Template == nil {
			continue
		}
		t.scope(f, d.ImplIndex)
		s.Template.Evaluate(f.Operand, entryContext(ctx, d), f.SectionData(d.ImplIndex), f.Tokens)
	}
}

type sweptSection struct {
	r     timerange.Range
	flags segment.Flags
}

// evaluateSwept evaluates every section overlapping the swept range exactly
// once, with the hull of the parts of the sweep it covers.
func (t *Track) evaluateSwept(seg segment.Segment, ctx evalcontext.Context, f Frame) {
	ids := t.GetSegmentsInRange(ctx.Range)
	if len(ids) == 0 {
		ids = []segment.ID{seg.ID}
	}

	swept := make(map[int]sweptSection)
	for _, id := range ids {
		s, ok := t.segments.Lookup(id)
		if !ok {
			continue
		}
		overlap := timerange.Intersection(s.Range, ctx.Range)
		if overlap.IsEmpty() {
			overlap = timerange.Point(ctx.Time)
		}
		for _, d := range s.Impls {
			acc, seen := swept[d.ImplIndex]
			if !seen {
				swept[d.ImplIndex] = sweptSection{r: overlap, flags: d.Flags}
				continue
			}
			acc.r = timerange.Hull(acc.r, overlap)
			acc.flags |= d.Flags
			swept[d.ImplIndex] = acc
		}
	}

	impls := make([]int, 0, len(swept))
	for impl := range swept {
		impls = append(impls, impl)
	}
	slices.Sort(impls)

	for _, impl := range impls {
		s, ok := t.Section(impl)
		if !ok || s.Template == nil {
			continue
		}
		acc := swept[impl]
		sctx := ctx.WithRoll(acc.flags.IsPreRoll(), acc.flags.IsPostRoll())
		t.scope(f, impl)
		if se, ok := s.Template.(SweptEvaluator); ok {
			se.EvaluateSwept(f.Operand, sctx, acc.r, f.SectionData(impl), f.Tokens)
			continue
		}
		s.Template.Evaluate(f.Operand, sctx, f.SectionData(impl), f.Tokens)
	}
}

// Setup runs the begin-evaluation hook of the track implementation.
func (t *Track) Setup(f Frame) {
	if st, ok := t.Impl.(SetupTearDown); ok {
		st.Setup(f.TrackData(), f.Player)
	}
}

// TearDown runs the end-evaluation hook of the track implementation and
// drops the track's persistent data.
func (t *Track) TearDown(f Frame) {
	if st, ok := t.Impl.(SetupTearDown); ok {
		st.TearDown(f.TrackData(), f.Player)
	}
	f.TrackData().ResetTrackData()
}

// SetupSection runs the begin-evaluation hook of section impl.
func (t *Track) SetupSection(impl int, f Frame) {
	s, ok := t.Section(impl)
	if !ok {
		return
	}
	if st, ok := s.Template.(SetupTearDown); ok {
		st.Setup(f.SectionData(impl), f.Player)
	}
}

// TearDownSection runs the end-evaluation hook of section impl and drops
// its persistent data.
func (t *Track) TearDownSection(impl int, f Frame) {
	s, ok := t.Section(impl)
	if !ok {
		return
	}
	data := f.SectionData(impl)
	if st, ok := s.Template.(SetupTearDown); ok {
		st.TearDown(data, f.Player)
	}
	data.ResetSectionData()
}

// Interrogate reports what each section evaluated at time would produce,
// keyed by impl index. Sections whose template cannot be interrogated are
// omitted.
func (t *Track) Interrogate(ctx evalcontext.Context) map[int]map[string]float64 {
	seg, ok := t.segments.Lookup(t.GetSegmentFromTime(ctx.Time))
	if !ok {
		return nil
	}
	out := make(map[int]map[string]float64)
	for _, d := range seg.Impls {
		s, ok := t.Section(d.ImplIndex)
		if !ok {
			continue
		}
		if in, ok := s.Template.(Interrogator); ok {
			out[d.ImplIndex] = in.Interrogate(entryContext(ctx, d))
		}
	}
	return out
}
