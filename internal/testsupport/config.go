package testsupport

import (
	"path/filepath"
	"testing"

	"moviescene/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.StorePath = filepath.Join(base, "state", "templates.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Level = "debug"
	cfgVal.Inspect.Listen = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPersistentTemplates stores templates in the config's SQLite database.
func WithPersistentTemplates() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Evaluation.TemplateStorage = config.StoragePersistent
	}
}

// WithFullCompile compiles whole fields when templates are generated.
func WithFullCompile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compiler.FullCompile = true
	}
}

// WithGroup adds an evaluation group with the given priority.
func WithGroup(name string, priority int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compiler.Groups = append(b.cfg.Compiler.Groups, config.EvaluationGroup{Name: name, Priority: priority})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
