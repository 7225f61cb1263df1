package testsupport

import (
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The catalog source is disabled and one empty source folder is configured;
// options can change either.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.TargetDir = filepath.Join(base, "target")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Paths.SourceDirs = []string{filepath.Join(base, "incoming")}
	cfgVal.Paths.CalibreLibrary = ""
	cfgVal.Paths.CalibreDB = ""
	cfgVal.Sources.Catalog = false
	cfgVal.Sources.Filesystem = true
	cfgVal.Run.FailureReport = filepath.Join(base, "state", "failed_items.txt")

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

// WithCatalog enables the catalog source pointed at library.
func WithCatalog(library string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources.Catalog = true
		b.cfg.Paths.CalibreLibrary = library
		b.cfg.Paths.CalibreDB = filepath.Join(library, "metadata.db")
	}
}

// WithoutFilesystem disables the filesystem source.
func WithoutFilesystem() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources.Filesystem = false
		b.cfg.Paths.SourceDirs = nil
	}
}

// WithSourceDirs replaces the configured source folders.
func WithSourceDirs(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.SourceDirs = append([]string(nil), dirs...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// SourceDir returns the first configured source folder.
func SourceDir(cfg *config.Config) string {
	if len(cfg.Paths.SourceDirs) == 0 {
		return ""
	}
	return cfg.Paths.SourceDirs[0]
}
