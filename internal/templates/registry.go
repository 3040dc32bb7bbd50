package templates

import (
	"log/slog"
	"slices"
	"sync"

	"moviescene/internal/compiler"
	"moviescene/internal/evaltrack"
	"moviescene/internal/logging"
	"moviescene/internal/sequence"
)

// Stock track kinds.
const (
	KindTrace    = "trace"
	KindProperty = "property"
	KindEvent    = "event"
	KindSpawn    = "spawn"
)

// SectionFunc builds the template of one section.
type SectionFunc func(ctx compiler.BindingContext, track *sequence.Track, section *sequence.Section) evaltrack.SectionTemplate

// TrackFunc builds a whole-track implementation.
type TrackFunc func(ctx compiler.BindingContext, track *sequence.Track) evaltrack.TrackImplementation

// Registry is a compiler.TemplateFactory keyed by track kind.
type Registry struct {
	logger *slog.Logger

	mu       sync.Mutex
	sections map[string]SectionFunc
	tracks   map[string]TrackFunc
	warned   map[string]bool
}

var _ compiler.TemplateFactory = (*Registry)(nil)

// NewRegistry returns a registry holding the stock kinds.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		logger:   logging.NewComponentLogger(logger, "templates"),
		sections: make(map[string]SectionFunc),
		tracks:   make(map[string]TrackFunc),
		warned:   make(map[string]bool),
	}
	r.Register(KindTrace, func(_ compiler.BindingContext, _ *sequence.Track, s *sequence.Section) evaltrack.SectionTemplate {
		return Trace{Label: s.Name, Mode: s.CompletionMode}
	})
	r.Register(KindProperty, func(_ compiler.BindingContext, _ *sequence.Track, s *sequence.Section) evaltrack.SectionTemplate {
		if s.Property == "" {
			return nil
		}
		return Property{Name: s.Property, Keys: slices.Clone(s.Keys), Mode: s.CompletionMode}
	})
	r.Register(KindEvent, func(_ compiler.BindingContext, t *sequence.Track, s *sequence.Section) evaltrack.SectionTemplate {
		name := s.Name
		if name == "" {
			name = t.Name
		}
		return Event{Name: name, Events: slices.Clone(s.Events)}
	})
	r.RegisterTrack(KindSpawn, func(ctx compiler.BindingContext, _ *sequence.Track) evaltrack.TrackImplementation {
		if !ctx.Spawnable {
			return nil
		}
		return Spawn{}
	})
	return r
}

// Register sets the section builder for kind, replacing any existing one.
func (r *Registry) Register(kind string, fn SectionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[kind] = fn
}

// RegisterTrack sets the track implementation builder for kind.
func (r *Registry) RegisterTrack(kind string, fn TrackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[kind] = fn
}

// Kinds returns every registered kind, sorted.
func (r *Registry) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for k := range r.sections {
		out = append(out, k)
	}
	for k := range r.tracks {
		if _, ok := r.sections[k]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Known reports whether kind is registered.
func (r *Registry) Known(kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, s := r.sections[kind]
	_, t := r.tracks[kind]
	return s || t
}

// SectionTemplate implements compiler.TemplateFactory.
func (r *Registry) SectionTemplate(ctx compiler.BindingContext, track *sequence.Track, section *sequence.Section) evaltrack.SectionTemplate {
	r.mu.Lock()
	fn, ok := r.sections[track.Kind]
	_, hasTrack := r.tracks[track.Kind]
	r.mu.Unlock()
	if !ok {
		if !hasTrack {
			r.warnUnknown(track)
		}
		return nil
	}
	return fn(ctx, track, section)
}

// TrackImplementation implements compiler.TemplateFactory.
func (r *Registry) TrackImplementation(ctx compiler.BindingContext, track *sequence.Track) evaltrack.TrackImplementation {
	r.mu.Lock()
	fn, ok := r.tracks[track.Kind]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return fn(ctx, track)
}

func (r *Registry) warnUnknown(track *sequence.Track) {
	r.mu.Lock()
	seen := r.warned[track.Kind]
	r.warned[track.Kind] = true
	r.mu.Unlock()
	if seen {
		return
	}
	r.logger.Warn("unknown track kind; sections skipped",
		slog.String("kind", track.Kind),
		slog.String("track", track.Name),
	)
}
