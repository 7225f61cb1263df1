package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains source, target, and state directory configuration.
type Paths struct {
	TargetDir      string   `toml:"target_dir"`
	CalibreLibrary string   `toml:"calibre_library"`
	CalibreDB      string   `toml:"calibre_db"`
	SourceDirs     []string `toml:"source_dirs"`
	StateDir       string   `toml:"state_dir"`
	LogDir         string   `toml:"log_dir"`
}

// Sources selects which discovery sources feed the ledger.
type Sources struct {
	Catalog    bool     `toml:"catalog"`
	Filesystem bool     `toml:"filesystem"`
	Formats    []string `toml:"formats"`
}

// FictionCategory maps an English fiction subcategory to the tag keywords
// that select it. Categories are evaluated in file order.
type FictionCategory struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// Taxonomy contains the folder maps and keyword tables used for classification.
type Taxonomy struct {
	TXTFolder          string              `toml:"txt_folder"`
	MaxPathLength      int                 `toml:"max_path_length"`
	LanguageFolders    map[string]string   `toml:"language_folders"`
	JapaneseCategories map[string]string   `toml:"japanese_categories"`
	EnglishCategories  map[string]string   `toml:"english_categories"`
	LightNovelKeywords []string            `toml:"light_novel_keywords"`
	Fiction            []FictionCategory   `toml:"fiction"`
	PathLanguageHints  map[string][]string `toml:"path_language_hints"`
}

// Run contains batch behavior settings.
type Run struct {
	ProgressInterval   int    `toml:"progress_interval"`
	ReloadFingerprints bool   `toml:"reload_fingerprints"`
	FailureReport      string `toml:"failure_report"`
	PreviewLimit       int    `toml:"preview_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for shelver.
//
// Configuration sections by subsystem:
//   - Paths: target library, Calibre library, extra source folders, state
//   - Sources: which sources are scanned and which formats are accepted
//   - Taxonomy: language/category folder names and keyword tables
//   - Run: progress cadence, fingerprint reload, report locations
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Sources  Sources  `toml:"sources"`
	Taxonomy Taxonomy `toml:"taxonomy"`
	Run      Run      `toml:"run"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelver/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelver.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The target
// directory is left alone so dry runs never touch the destination tree.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the SQLite ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// DryRunLedgerPath returns the ledger used by dry runs. It is kept apart
// from LedgerPath so a dry run never marks real items as done.
func (c *Config) DryRunLedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.dryrun.db")
}

// LockPath returns the run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "shelver.lock")
}

// FailureReportPath returns the failure report location.
func (c *Config) FailureReportPath() string {
	return c.Run.FailureReport
}

// PreviewReportPath returns the preview report location.
func (c *Config) PreviewReportPath() string {
	return filepath.Join(c.Paths.StateDir, "preview_report.txt")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
