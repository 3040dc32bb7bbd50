package compiler

import (
	"log/slog"
	"time"

	"moviescene/internal/field"
	"moviescene/internal/logging"
	"moviescene/internal/metrics"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// Compiler fills evaluation fields on demand.
type Compiler struct {
	arena     *sequence.Arena
	store     template.Store
	generator *Generator
	opts      Options
	logger    *slog.Logger
}

// New returns a compiler over the sequences in arena.
func New(arena *sequence.Arena, store template.Store, factory TemplateFactory, opts Options) *Compiler {
	return &Compiler{
		arena:     arena,
		store:     store,
		generator: NewGenerator(arena, store, factory, opts),
		opts:      opts,
		logger:    logging.NewComponentLogger(opts.Logger, "compiler"),
	}
}

// Arena returns the arena sequences are resolved through.
func (c *Compiler) Arena() *sequence.Arena { return c.arena }

// Generator returns the template generator.
func (c *Compiler) Generator() *Generator { return c.generator }

// Access returns the up to date template of seq, regenerating it when seq
// or a nested sequence changed since it was last generated.
func (c *Compiler) Access(seq *sequence.Sequence) *template.Template {
	tmpl := c.store.AccessTemplate(seq)
	if tmpl.IsStale(c.arena.Resolve) {
		c.generator.Generate(tmpl, seq)
	}
	return tmpl
}

// AccessHandle resolves h and returns its template.
func (c *Compiler) AccessHandle(h sequence.Handle) (*template.Template, bool) {
	seq, ok := c.arena.Resolve(h)
	if !ok {
		return nil, false
	}
	return c.Access(seq), true
}

// Result is one compiled field entry.
type Result struct {
	Range    timerange.Range
	Group    field.Group
	Metadata field.Metadata
}

// CompileTime compiles the field entry containing t and caches it in tmpl's
// field. It returns the result, and the entry's index or -1 when the result
// could not be cached.
func (c *Compiler) CompileTime(tmpl *template.Template, t float64) (Result, int) {
	start := time.Now()
	res := c.GatherCompileOnTheFlyData(tmpl, t)
	idx := tmpl.Field().Insert(t, res.Range, res.Group, res.Metadata)
	c.opts.Metrics.FieldCompiled(metrics.ModeTime, 1, time.Since(start))
	c.logger.Debug("compiled field entry",
		slog.Float64(logging.FieldTime, t),
		slog.String(logging.FieldRange, res.Range.String()),
		slog.Int("segments", len(res.Group.SegmentPtrs)),
		slog.Int("index", idx),
	)
	return res, idx
}

// CompileRange compiles every uncached part of r.
func (c *Compiler) CompileRange(tmpl *template.Template, r timerange.Range) int {
	start := time.Now()
	compiled := 0
	for _, piece := range c.partition(tmpl) {
		if !piece.Overlaps(r) {
			continue
		}
		at := sampleTime(timerange.Intersection(piece, r))
		if tmpl.Field().GetSegmentFromTime(at) >= 0 {
			continue
		}
		res := c.GatherCompileOnTheFlyData(tmpl, at)
		if tmpl.Field().Insert(at, res.Range, res.Group, res.Metadata) >= 0 {
			compiled++
		}
	}
	c.opts.Metrics.FieldCompiled(metrics.ModeTime, compiled, time.Since(start))
	return compiled
}

// Compile replaces tmpl's field with a full partition of the timeline.
func (c *Compiler) Compile(tmpl *template.Template) int {
	start := time.Now()
	f := tmpl.Field()
	f.Reset()
	for _, piece := range c.partition(tmpl) {
		at := sampleTime(piece)
		if f.GetSegmentFromTime(at) >= 0 {
			continue
		}
		res := c.GatherCompileOnTheFlyData(tmpl, at)
		r := res.Range
		if n := f.Len(); n > 0 {
			last := f.Range(n - 1)
			if last.Upper.IsOpen() {
				break
			}
			r.Lower = timerange.MaxLower(r.Lower, last.Upper.FlipInclusion())
		}
		if r.IsEmpty() {
			continue
		}
		f.Add(r, res.Group, res.Metadata)
	}
	c.opts.Metrics.FieldCompiled(metrics.ModeBatch, f.Len(), time.Since(start))
	c.logger.Debug("compiled full field", slog.Int("entries", f.Len()))
	return f.Len()
}
