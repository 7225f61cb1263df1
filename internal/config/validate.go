package config

import (
	"errors"
	"fmt"
	"strings"

	"shelver/internal/failure"
)

// Validate ensures the configuration is usable. Every error it returns is
// tagged with failure.ErrConfiguration.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validatePaths,
		c.validateSources,
		c.validateTaxonomy,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", failure.ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.TargetDir == "" {
		return errors.New("paths.target_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	for _, dir := range c.Paths.SourceDirs {
		if dir == c.Paths.TargetDir {
			return fmt.Errorf("paths.source_dirs must not include the target directory %q", dir)
		}
	}
	return nil
}

func (c *Config) validateSources() error {
	if !c.Sources.Catalog && !c.Sources.Filesystem {
		return errors.New("sources: at least one of catalog or filesystem must be enabled")
	}
	if c.Sources.Catalog && c.Paths.CalibreLibrary == "" {
		return errors.New("paths.calibre_library must be set when sources.catalog is enabled")
	}
	if c.Sources.Filesystem && len(c.Paths.SourceDirs) == 0 && !c.Sources.Catalog {
		return errors.New("paths.source_dirs must list at least one folder when only sources.filesystem is enabled")
	}
	return nil
}

func (c *Config) validateTaxonomy() error {
	for _, key := range []string{LanguageEnglish, LanguageJapanese, LanguageChinese, LanguageUnknown} {
		if strings.TrimSpace(c.Taxonomy.LanguageFolders[key]) == "" {
			return fmt.Errorf("taxonomy.language_folders.%s must be set", key)
		}
	}
	for _, key := range []string{CategoryLightNovel, CategoryMystery, CategoryScifiFantasy, CategoryLiterature, CategoryOther} {
		if strings.TrimSpace(c.Taxonomy.JapaneseCategories[key]) == "" {
			return fmt.Errorf("taxonomy.japanese_categories.%s must be set", key)
		}
	}
	for _, key := range []string{CategoryClassics, CategoryFiction, CategoryNonFiction} {
		if strings.TrimSpace(c.Taxonomy.EnglishCategories[key]) == "" {
			return fmt.Errorf("taxonomy.english_categories.%s must be set", key)
		}
	}
	for i, category := range c.Taxonomy.Fiction {
		if len(category.Keywords) == 0 {
			return fmt.Errorf("taxonomy.fiction[%d] (%s) must list at least one keyword", i, category.Name)
		}
	}
	if c.Taxonomy.MaxPathLength < 50 {
		return errors.New("taxonomy.max_path_length must be at least 50")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
