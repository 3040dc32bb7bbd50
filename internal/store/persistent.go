package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"moviescene/internal/logging"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
)

// PersistentStore is a template.Store that seeds new templates from the
// snapshots in a Store and writes them back on Persist.
type PersistentStore struct {
	db        *Store
	templates *template.EphemeralStore
	names     map[sequence.Handle]string
	logger    *slog.Logger
	seeded    int
}

var _ template.Store = (*PersistentStore)(nil)

// NewPersistentStore returns a template store backed by db.
func NewPersistentStore(db *Store, logger *slog.Logger) *PersistentStore {
	return &PersistentStore{
		db:        db,
		templates: template.NewEphemeralStore(),
		names:     make(map[sequence.Handle]string),
		logger:    logging.NewComponentLogger(logger, "template-store"),
	}
}

// AccessTemplate implements template.Store. A template created for the
// first time is seeded from the snapshot stored under the sequence's name.
// The snapshot only restores compiled state when the sequence still has
// the signature it was taken from; otherwise only track identifiers carry
// over.
func (p *PersistentStore) AccessTemplate(seq *sequence.Sequence) *template.Template {
	if tmpl, ok := p.templates.Lookup(seq.Handle()); ok {
		return tmpl
	}
	tmpl := p.templates.AccessTemplate(seq)
	p.names[seq.Handle()] = seq.Name

	rec, err := p.db.Get(context.Background(), seq.Name)
	if err != nil {
		p.logger.Warn("template snapshot unreadable; compiling from scratch",
			slog.String(logging.FieldSequence, seq.Name),
			logging.Error(err))
		return tmpl
	}
	if rec == nil {
		return tmpl
	}
	tmpl.Seed(rec.Snapshot)
	p.seeded++
	p.logger.Debug("seeded template",
		slog.String(logging.FieldSequence, seq.Name),
		slog.Bool("signature_match", rec.Signature == seq.Signature()))
	return tmpl
}

// Seeded returns the number of templates seeded from stored snapshots.
func (p *PersistentStore) Seeded() int { return p.seeded }

// Persist writes a snapshot of every template accessed so far.
func (p *PersistentStore) Persist(ctx context.Context) error {
	held := p.templates.Templates()
	for _, h := range slices.SortedFunc(maps.Keys(held), compareHandles(p.names)) {
		name := p.names[h]
		if err := p.db.Save(ctx, name, held[h].Snapshot()); err != nil {
			return fmt.Errorf("persist templates: %w", err)
		}
	}
	p.logger.Debug("persisted templates", slog.Int("templates", len(held)))
	return nil
}

func compareHandles(names map[sequence.Handle]string) func(a, b sequence.Handle) int {
	return func(a, b sequence.Handle) int { return strings.Compare(names[a], names[b]) }
}
