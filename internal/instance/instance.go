package instance

import (
	"log/slog"

	"github.com/google/uuid"

	"moviescene/internal/compiler"
	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/field"
	"moviescene/internal/logging"
	"moviescene/internal/metrics"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// Options configures an Instance.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// EvaluationMetrics counts what an Instance has done since it was
// initialized.
type EvaluationMetrics struct {
	Frames           int
	FieldHits        int
	FieldCompiles    int
	EntitiesSetUp    int
	EntitiesTornDown int
	SequencesExpired int
	TokensApplied    int
}

// Instance evaluates one root sequence. It is not safe for concurrent use.
type Instance struct {
	compiler *compiler.Compiler
	logger   *slog.Logger
	metrics  *metrics.Metrics

	root     sequence.Handle
	rootTmpl *template.Template

	store  *evalcontext.PersistentStore
	tokens *evalcontext.ExecutionTokens

	thisFrame, lastFrame field.Metadata
	lastOverride         evalcontext.SequenceID
	evaluated            bool
	instances            map[evalcontext.SequenceID]sequenceInstance

	stats  EvaluationMetrics
	counts frameCounts
}

// frameCounts are the lifecycle events of the frame being evaluated.
type frameCounts struct {
	setUp, tornDown, expired int
}

// New returns an uninitialized instance compiling through c.
func New(c *compiler.Compiler, opts Options) *Instance {
	store := evalcontext.NewPersistentStore()
	return &Instance{
		compiler:  c,
		logger:    logging.NewComponentLogger(opts.Logger, "instance"),
		metrics:   opts.Metrics,
		store:     store,
		tokens:    evalcontext.NewExecutionTokens(store),
		instances: make(map[evalcontext.SequenceID]sequenceInstance),
	}
}

// Initialize makes root the sequence evaluated by i. Switching to a
// different root finishes the previous one first. It reports whether root
// resolves.
func (i *Instance) Initialize(root sequence.Handle, p evalcontext.Player) bool {
	if i.rootTmpl != nil && i.root != root {
		i.Finish(p)
	}
	tmpl, ok := i.compiler.AccessHandle(root)
	if !ok {
		i.logger.Warn("root sequence does not resolve", slog.String("handle", root.String()))
		return false
	}
	i.root = root
	i.rootTmpl = tmpl
	return true
}

// IsInitialized reports whether a root has been set.
func (i *Instance) IsInitialized() bool { return i.rootTmpl != nil }

// Template returns the root sequence's template.
func (i *Instance) Template() *template.Template { return i.rootTmpl }

// Metrics returns the instance's counters.
func (i *Instance) Metrics() EvaluationMetrics { return i.stats }

// ActiveEntities returns the entities the last evaluated frame activated.
func (i *Instance) ActiveEntities() []evalcontext.OrderedKey {
	return i.thisFrame.Clone().ActiveEntities
}

// ActiveSequences returns the sequence instances the last evaluated frame
// activated.
func (i *Instance) ActiveSequences() []evalcontext.SequenceID {
	return i.thisFrame.Clone().ActiveSequences
}

// FindTrack returns track id of sequence instance seq.
func (i *Instance) FindTrack(seq evalcontext.SequenceID, id evalcontext.TrackIdentifier) (*evaltrack.Track, bool) {
	if i.rootTmpl == nil {
		return nil, false
	}
	inst, ok := i.instance(seq)
	if !ok {
		return nil, false
	}
	return inst.tmpl.FindTrack(id)
}

// Evaluate evaluates the frame described by ctx, which is expressed in root
// time. override selects the sequence instance evaluated as if it were the
// root; evalcontext.RootSequenceID evaluates the whole hierarchy. Changing
// override between frames tears down everything the previous frame
// activated first.
func (i *Instance) Evaluate(ctx evalcontext.Context, p evalcontext.Player, override evalcontext.SequenceID) {
	if i.rootTmpl == nil {
		return
	}
	i.lastFrame, i.thisFrame = i.thisFrame, i.lastFrame
	i.thisFrame.Reset()
	i.counts = frameCounts{}

	if i.evaluated && override != i.lastOverride {
		i.logger.Debug("override root changed; tearing down",
			slog.String("from", i.lastOverride.String()),
			slog.String("to", override.String()))
		i.retire(p)
	}
	i.lastOverride = override
	i.evaluated = true

	tokensBefore := i.tokens.Applied()
	rootSeq, ok := i.compiler.Arena().Resolve(i.root)
	if !ok {
		i.logger.Warn("root sequence no longer resolves", slog.String("handle", i.root.String()))
		i.retire(p)
		return
	}
	i.rootTmpl = i.compiler.Access(rootSeq)

	evalTmpl, toOverride, ok := i.overrideTemplate(override)
	if !ok {
		i.logger.Debug("override root not in hierarchy", slog.String("sequence", override.String()))
		i.retire(p)
		return
	}

	t := toOverride.Apply(ctx.Time)
	group, meta := i.lookupEntry(evalTmpl, t)

	i.thisFrame = meta.Clone()
	i.thisFrame.RemapSequenceIDsForRoot(override, evalTmpl.Hierarchy())
	i.bindInstances(i.lastFrame.ActiveSequences, i.thisFrame.ActiveSequences)

	delayed := i.callSetupTearDown(p, i.thisFrame)
	i.expireSequences(p, i.thisFrame)
	i.evaluateGroup(ctx, p, group, override, evalTmpl)
	i.tokens.Apply(p)
	restore(p, delayed)

	applied := i.tokens.Applied() - tokensBefore
	i.stats.Frames++
	i.stats.TokensApplied += applied
	i.metrics.FrameEvaluated(i.counts.setUp, i.counts.tornDown, i.counts.expired, applied)
}

// overrideTemplate resolves the template evaluated for override and the
// transform from root time into its local time.
func (i *Instance) overrideTemplate(override evalcontext.SequenceID) (*template.Template, evalcontext.TimeTransform, bool) {
	if override == evalcontext.RootSequenceID {
		return i.rootTmpl, evalcontext.Identity(), true
	}
	data, ok := i.rootTmpl.Hierarchy().FindSubData(override)
	if !ok {
		return nil, evalcontext.TimeTransform{}, false
	}
	tmpl, ok := i.compiler.AccessHandle(data.Sequence)
	if !ok {
		return nil, evalcontext.TimeTransform{}, false
	}
	return tmpl, data.RootToSequence, true
}

// lookupEntry returns the field entry of tmpl containing t, compiling it
// when it is missing or was compiled from nested sequences that changed
// since.
func (i *Instance) lookupEntry(tmpl *template.Template, t float64) (field.Group, field.Metadata) {
	f := tmpl.Field()
	if idx := f.GetSegmentFromTime(t); idx >= 0 {
		dirty, invalid := f.Metadata(idx).IsDirty(i.signatureLookup(tmpl))
		if !dirty {
			i.stats.FieldHits++
			i.metrics.FieldCacheHit()
			return f.Group(idx), f.Metadata(idx)
		}
		// The stale entry itself must go, or the recompiled one is clipped
		// away by it.
		invalid = timerange.Hull(invalid, f.Range(idx))
		n := f.Invalidate(invalid)
		i.metrics.FieldInvalidated(n)
		i.logger.Debug("field entry stale",
			slog.Float64(logging.FieldTime, t),
			slog.String(logging.FieldRange, invalid.String()),
			slog.Int("invalidated", n))
	}
	res, _ := i.compiler.CompileTime(tmpl, t)
	i.stats.FieldCompiles++
	i.metrics.SetFieldEntries(f.Len())
	return res.Group, res.Metadata
}

func (i *Instance) signatureLookup(tmpl *template.Template) field.SignatureLookup {
	return func(id evalcontext.SequenceID) (sig uuid.UUID, rootRange timerange.Range, ok bool) {
		data, found := tmpl.Hierarchy().FindSubData(id)
		if !found {
			return sig, rootRange, false
		}
		seq, found := i.compiler.Arena().Resolve(data.Sequence)
		if !found {
			return sig, rootRange, false
		}
		return seq.Signature(), data.RootRange(), true
	}
}

// evaluateGroup runs every flush block of group: initialization, then
// evaluation, then a flush of the tokens the block pushed.
func (i *Instance) evaluateGroup(ctx evalcontext.Context, p evalcontext.Player, group field.Group, override evalcontext.SequenceID, evalTmpl *template.Template) {
	for block := range group.LUTIndices {
		for _, ptr := range group.InitPtrs(block) {
			if track, inst, f, ok := i.resolvePtr(ptr, p, override, evalTmpl); ok {
				track.Initialize(ptr.SegmentID, inst.context(ctx), f)
			}
		}
		for _, ptr := range group.EvalPtrs(block) {
			if track, inst, f, ok := i.resolvePtr(ptr, p, override, evalTmpl); ok {
				track.Evaluate(ptr.SegmentID, inst.context(ctx), f)
			}
		}
		i.tokens.Apply(p)
	}
}

func (i *Instance) resolvePtr(ptr field.SegmentPtr, p evalcontext.Player, override evalcontext.SequenceID, evalTmpl *template.Template) (*evaltrack.Track, sequenceInstance, evaltrack.Frame, bool) {
	abs := evalTmpl.Hierarchy().Rebase(ptr.SequenceID, override)
	inst, ok := i.instance(abs)
	if !ok {
		return nil, sequenceInstance{}, evaltrack.Frame{}, false
	}
	track, ok := inst.tmpl.FindTrack(ptr.TrackID)
	if !ok {
		return nil, sequenceInstance{}, evaltrack.Frame{}, false
	}
	return track, inst, i.frame(abs, ptr.TrackID, track, p), true
}

func (i *Instance) frame(seq evalcontext.SequenceID, id evalcontext.TrackIdentifier, track *evaltrack.Track, p evalcontext.Player) evaltrack.Frame {
	return evaltrack.Frame{
		Operand: evalcontext.NewOperand(seq, track.ObjectBinding),
		Key:     evalcontext.TrackKey(seq, id),
		Store:   i.store,
		Tokens:  i.tokens,
		Player:  p,
	}
}

// Finish tears down everything the last frame activated, exactly as if the
// next frame activated nothing.
func (i *Instance) Finish(p evalcontext.Player) {
	if !i.evaluated {
		return
	}
	i.lastFrame, i.thisFrame = i.thisFrame, i.lastFrame
	i.thisFrame.Reset()
	i.counts = frameCounts{}
	i.retire(p)
	i.metrics.FrameEvaluated(0, i.counts.tornDown, i.counts.expired, 0)
	i.evaluated = false
	i.lastOverride = evalcontext.RootSequenceID
	clear(i.instances)
	i.logger.Debug("finished", slog.Int("frames", i.stats.Frames))
}

// retire tears down every entity and expires every sequence the last frame
// activated.
func (i *Instance) retire(p evalcontext.Player) {
	var none field.Metadata
	delayed := i.callSetupTearDown(p, none)
	i.expireSequences(p, none)
	i.tokens.Apply(p)
	restore(p, delayed)
	i.lastFrame.Reset()
}

func restore(p evalcontext.Player, keys []evalcontext.EvaluationKey) {
	if len(keys) == 0 || p == nil {
		return
	}
	state := p.PreAnimatedState()
	for _, key := range keys {
		state.RestorePreAnimatedState(key)
	}
}
