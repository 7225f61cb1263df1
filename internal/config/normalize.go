package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSources()
	c.normalizeTaxonomy()
	c.normalizeRun()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("SHELVER_TARGET_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TargetDir = strings.TrimSpace(value)
	}
	if c.Paths.CalibreLibrary == "" {
		if value, ok := os.LookupEnv("SHELVER_CALIBRE_LIBRARY"); ok {
			c.Paths.CalibreLibrary = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv("SHELVER_STATE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StateDir = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.TargetDir, err = expandPath(strings.TrimSpace(c.Paths.TargetDir)); err != nil {
		return fmt.Errorf("paths.target_dir: %w", err)
	}
	if c.Paths.CalibreLibrary, err = expandPath(strings.TrimSpace(c.Paths.CalibreLibrary)); err != nil {
		return fmt.Errorf("paths.calibre_library: %w", err)
	}
	if strings.TrimSpace(c.Paths.CalibreDB) == "" && c.Paths.CalibreLibrary != "" {
		c.Paths.CalibreDB = filepath.Join(c.Paths.CalibreLibrary, "metadata.db")
	}
	if c.Paths.CalibreDB, err = expandPath(strings.TrimSpace(c.Paths.CalibreDB)); err != nil {
		return fmt.Errorf("paths.calibre_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	dirs := make([]string, 0, len(c.Paths.SourceDirs))
	seen := make(map[string]struct{}, len(c.Paths.SourceDirs))
	for _, dir := range c.Paths.SourceDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.source_dirs: %w", err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		dirs = append(dirs, expanded)
	}
	c.Paths.SourceDirs = dirs
	return nil
}

func (c *Config) normalizeSources() {
	formats := make([]string, 0, len(c.Sources.Formats))
	seen := make(map[string]struct{}, len(c.Sources.Formats))
	for _, format := range c.Sources.Formats {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		formats = append(formats, normalized)
	}
	if len(formats) == 0 {
		formats = []string{"epub", "mobi", "azw3"}
	}
	c.Sources.Formats = formats
}

func (c *Config) normalizeTaxonomy() {
	c.Taxonomy.TXTFolder = strings.TrimSpace(c.Taxonomy.TXTFolder)
	if c.Taxonomy.TXTFolder == "" {
		c.Taxonomy.TXTFolder = defaultTXTFolder
	}
	if c.Taxonomy.MaxPathLength <= 0 {
		c.Taxonomy.MaxPathLength = defaultMaxPathLength
	}
	c.Taxonomy.LanguageFolders = trimKeys(c.Taxonomy.LanguageFolders)
	c.Taxonomy.JapaneseCategories = trimKeys(c.Taxonomy.JapaneseCategories)
	c.Taxonomy.EnglishCategories = trimKeys(c.Taxonomy.EnglishCategories)

	keywords := c.Taxonomy.LightNovelKeywords[:0]
	for _, kw := range c.Taxonomy.LightNovelKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	c.Taxonomy.LightNovelKeywords = keywords

	fiction := make([]FictionCategory, 0, len(c.Taxonomy.Fiction))
	for _, category := range c.Taxonomy.Fiction {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			continue
		}
		kws := make([]string, 0, len(category.Keywords))
		for _, kw := range category.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		fiction = append(fiction, FictionCategory{Name: name, Keywords: kws})
	}
	c.Taxonomy.Fiction = fiction
}

func (c *Config) normalizeRun() {
	if c.Run.ProgressInterval <= 0 {
		c.Run.ProgressInterval = defaultProgressInterval
	}
	if c.Run.PreviewLimit <= 0 {
		c.Run.PreviewLimit = defaultPreviewLimit
	}
	c.Run.FailureReport = strings.TrimSpace(c.Run.FailureReport)
	if c.Run.FailureReport == "" {
		c.Run.FailureReport = filepath.Join(c.Paths.StateDir, failureReportName)
	} else if expanded, err := expandPath(c.Run.FailureReport); err == nil {
		c.Run.FailureReport = expanded
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimKeys(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out
}
