package compiler

import (
	"log/slog"

	"github.com/google/uuid"

	"moviescene/internal/evaltrack"
	"moviescene/internal/metrics"
	"moviescene/internal/segment"
	"moviescene/internal/sequence"
)

// Options configures a Compiler.
type Options struct {
	// Groups maps evaluation group names to their priority. Higher
	// priority groups evaluate first.
	Groups map[string]int
	// DefaultGroupPriority applies to tracks whose group is not listed.
	DefaultGroupPriority int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (o Options) groupPriority(name string) int {
	if p, ok := o.Groups[name]; ok {
		return p
	}
	return o.DefaultGroupPriority
}

// BindingContext describes the object binding whose tracks are being
// generated. Master tracks generate under the zero value.
type BindingContext struct {
	Binding   uuid.UUID
	Name      string
	Spawnable bool
}

// IsMaster reports whether no binding is in scope.
func (c BindingContext) IsMaster() bool { return c.Binding == uuid.Nil }

// TemplateFactory creates the evaluable units for authored tracks.
type TemplateFactory interface {
	// SectionTemplate returns the template for section, or nil to skip it.
	SectionTemplate(ctx BindingContext, track *sequence.Track, section *sequence.Section) evaltrack.SectionTemplate
	// TrackImplementation returns a whole-track override, or nil.
	TrackImplementation(ctx BindingContext, track *sequence.Track) evaltrack.TrackImplementation
}

// Blenders returns the row and track blenders a Blending selects.
func Blenders(b sequence.Blending) (segment.RowBlender, segment.TrackBlender) {
	switch b {
	case sequence.BlendNearest:
		return segment.DefaultRowBlender{}, segment.SortByRowBlender{EvaluateNearest: true}
	case sequence.BlendHighPass:
		return segment.DefaultRowBlender{}, segment.SortByRowBlender{HighPass: true}
	case sequence.BlendStartTime:
		return segment.DefaultRowBlender{}, segment.StartTimeBlender{}
	case sequence.BlendPriority:
		return nil, segment.SortByPriorityBlender{}
	case sequence.BlendPriorityAllowEmpty:
		return nil, segment.SortByPriorityBlender{EmptySpacePolicy: segment.EmptySpacePolicy{AllowEmpty: true}}
	case sequence.BlendNone:
		return nil, nil
	default:
		return segment.DefaultRowBlender{}, segment.SortByRowBlender{}
	}
}
