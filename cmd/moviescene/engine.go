package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"moviescene/internal/compiler"
	"moviescene/internal/config"
	"moviescene/internal/evalcontext"
	"moviescene/internal/instance"
	"moviescene/internal/metrics"
	"moviescene/internal/player"
	"moviescene/internal/scene"
	"moviescene/internal/sequence"
	"moviescene/internal/store"
	"moviescene/internal/template"
	"moviescene/internal/templates"
)

// engine is a loaded scene wired to a compiler and template store.
type engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	scene      *scene.Scene
	compiler   *compiler.Compiler
	db         *store.Store
	persistent *store.PersistentStore
}

func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, scenePath string) (*engine, error) {
	sc, err := scene.Load(scenePath)
	if err != nil {
		return nil, err
	}
	e := &engine{cfg: cfg, logger: logger, metrics: metrics.New(), scene: sc}

	var tmplStore template.Store = template.NewEphemeralStore()
	if cfg.Evaluation.TemplateStorage == config.StoragePersistent {
		db, err := store.Open(ctx, cfg.Paths.StorePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open template store: %w", err)
		}
		e.db = db
		e.persistent = store.NewPersistentStore(db, logger)
		tmplStore = e.persistent
	}

	e.compiler = compiler.New(sc.Arena, tmplStore, templates.NewRegistry(logger), compiler.Options{
		Groups:               cfg.GroupPriorities(),
		DefaultGroupPriority: cfg.Compiler.DefaultGroupPriority,
		Logger:               logger,
		Metrics:              e.metrics,
	})
	logger.Info("scene loaded",
		slog.String("root", sc.Document().RootName()),
		slog.Int("sequences", len(sc.Names())),
		slog.String("template_storage", cfg.Evaluation.TemplateStorage))
	return e, nil
}

// close persists templates when the store is persistent.
func (e *engine) close(ctx context.Context) error {
	if e.db == nil {
		return nil
	}
	var errs []error
	if err := e.persistent.Persist(ctx); err != nil {
		errs = append(errs, err)
	} else {
		e.logger.Info("templates persisted",
			slog.String("path", e.db.Path()),
			slog.Int("seeded", e.persistent.Seeded()))
	}
	if err := e.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close template store: %w", err))
	}
	return errors.Join(errs...)
}

// template returns the up to date template of the named sequence, or of
// the root when name is empty.
func (e *engine) template(name string) (*sequence.Sequence, *template.Template, error) {
	if name == "" {
		name = e.scene.Document().RootName()
	}
	seq, ok := e.scene.Sequence(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", scene.ErrUnknownSequence, name)
	}
	tmpl := e.compiler.Access(seq)
	if e.cfg.Compiler.FullCompile && tmpl.Field().Len() == 0 {
		n := e.compiler.Compile(tmpl)
		e.logger.Debug("compiled full field", slog.String("sequence", name), slog.Int("entries", n))
	}
	return seq, tmpl, nil
}

// newPlayer returns a player holding the scene's objects.
func (e *engine) newPlayer() (*player.Memory, map[string]*player.Object) {
	mem := player.NewMemory(e.logger)
	e.scene.DefineSpawnables(mem.Spawns())
	return mem, e.scene.BindObjects(mem)
}

// newInstance returns an instance initialized on the scene's root.
func (e *engine) newInstance(p evalcontext.Player) (*instance.Instance, error) {
	if _, _, err := e.template(""); err != nil {
		return nil, err
	}
	inst := instance.New(e.compiler, instance.Options{Logger: e.logger, Metrics: e.metrics})
	if !inst.Initialize(e.scene.Root, p) {
		return nil, errors.New("root sequence does not resolve")
	}
	return inst, nil
}

// resolveOverride finds the nested instance whose sub-section path is
// path. An empty path selects the root.
func (e *engine) resolveOverride(path string) (evalcontext.SequenceID, error) {
	if path == "" {
		return evalcontext.RootSequenceID, nil
	}
	_, tmpl, err := e.template("")
	if err != nil {
		return evalcontext.RootSequenceID, err
	}
	h := tmpl.Hierarchy()
	var known []string
	for _, id := range h.IDs() {
		data, _ := h.FindSubData(id)
		if data.SectionPath == path {
			return id, nil
		}
		known = append(known, data.SectionPath)
	}
	slices.Sort(known)
	return evalcontext.RootSequenceID, fmt.Errorf("no nested sequence at %q (known: %v)", path, known)
}
