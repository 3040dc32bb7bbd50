package evaltrack

import (
	"moviescene/internal/evalcontext"
	"moviescene/internal/segment"
	"moviescene/internal/timerange"
)

// Method selects how a track evaluates its segments.
type Method uint8

const (
	// Static evaluates each entry once at the context time.
	Static Method = iota
	// Swept evaluates each section once over the whole range swept this frame.
	Swept
)

func (m Method) String() string {
	if m == Swept {
		return "swept"
	}
	return "static"
}

// SectionTemplate is the evaluable unit generated from one section. Evaluate
// pushes execution tokens; it must not touch bound objects directly.
type SectionTemplate interface {
	Evaluate(op evalcontext.Operand, ctx evalcontext.Context, data evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens)
}

// Initializer is implemented by templates that need a pass before any
// template in the same flush block evaluates.
type Initializer interface {
	Initialize(op evalcontext.Operand, ctx evalcontext.Context, data evalcontext.PersistentData, p evalcontext.Player)
}

// SweptEvaluator is implemented by templates that evaluate over a range.
// Swept tracks fall back to Evaluate for templates that do not.
type SweptEvaluator interface {
	EvaluateSwept(op evalcontext.Operand, ctx evalcontext.Context, r timerange.Range, data evalcontext.PersistentData, tokens *evalcontext.ExecutionTokens)
}

// SetupTearDown is implemented by templates with begin/end evaluation hooks.
type SetupTearDown interface {
	Setup(data evalcontext.PersistentData, p evalcontext.Player)
	TearDown(data evalcontext.PersistentData, p evalcontext.Player)
}

// CompletionModer is implemented by templates whose animated state must be
// restored when they stop evaluating.
type CompletionModer interface {
	CompletionMode() evalcontext.CompletionMode
}

// Interrogator is implemented by templates that can report the values they
// would produce at a context without pushing tokens.
type Interrogator interface {
	Interrogate(ctx evalcontext.Context) map[string]float64
}

// TrackImplementation takes over initialization and evaluation of a whole
// track. It may additionally implement TrackInitializer and SetupTearDown.
type TrackImplementation interface {
	EvaluateTrack(track *Track, seg segment.Segment, ctx evalcontext.Context, f Frame)
}

// TrackInitializer is the initialization half of a TrackImplementation.
type TrackInitializer interface {
	InitializeTrack(track *Track, seg segment.Segment, ctx evalcontext.Context, f Frame)
}

// Section is one section template plus the authored properties blenders use.
type Section struct {
	Name       string
	Template   SectionTemplate
	Properties segment.SectionProperties
	// Range is the section's nominal range without pre/post-roll.
	Range timerange.Range
}

// CompletionMode returns the template's completion mode, KeepState when it
// does not declare one.
func (s Section) CompletionMode() evalcontext.CompletionMode {
	if cm, ok := s.Template.(CompletionModer); ok {
		return cm.CompletionMode()
	}
	return evalcontext.KeepState
}

// Frame carries the collaborators one Initialize or Evaluate call needs.
type Frame struct {
	Operand evalcontext.Operand
	// Key is the track's evaluation key in the sequence being evaluated.
	Key    evalcontext.EvaluationKey
	Store  *evalcontext.PersistentStore
	Tokens *evalcontext.ExecutionTokens
	Player evalcontext.Player
}

// SectionData returns the persistent data view of section impl.
func (f Frame) SectionData(impl int) evalcontext.PersistentData {
	return f.store().Scoped(f.Key, f.Key.AsSection(impl))
}

// TrackData returns the persistent data view of the track itself.
func (f Frame) TrackData() evalcontext.PersistentData {
	return f.store().Scoped(f.Key, f.Key)
}

func (f Frame) store() *evalcontext.PersistentStore {
	if f.Store == nil {
		return evalcontext.NewPersistentStore()
	}
	return f.Store
}
