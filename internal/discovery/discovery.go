package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shelver/internal/logging"
)

// File is one discovered book file.
type File struct {
	// Path is absolute and doubles as the ledger source id.
	Path   string
	Root   string
	Format string
	Size   int64
}

// Title returns the file name without its extension.
func (f File) Title() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Walk collects files under roots whose extension is one of formats,
// compared case-insensitively. Missing roots are logged and skipped and
// hidden directories are not descended into. Results are sorted by path.
func Walk(ctx context.Context, roots, formats []string, logger *slog.Logger) ([]File, error) {
	logger = logging.NewComponentLogger(logger, "discovery")
	accepted := make(map[string]struct{}, len(formats))
	for _, format := range formats {
		format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
		if format != "" {
			accepted[format] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var files []File
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve source folder %q: %w", root, err)
		}
		info, err := os.Stat(absRoot)
		if err != nil || !info.IsDir() {
			logging.WarnWithContext(logging.WithContext(ctx, logger), "source folder unavailable; skipping",
				"source_folder_missing",
				logging.String("path", absRoot),
				logging.String(logging.FieldErrorHint, "check paths.source_dirs"),
				logging.String(logging.FieldImpact, "books in this folder are not migrated"),
			)
			continue
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					logger.Warn("unreadable path skipped", logging.String("path", path), logging.Error(err))
					if d != nil && d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if path != absRoot && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if _, ok := accepted[format]; !ok {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			var size int64
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}
			files = append(files, File{Path: path, Root: absRoot, Format: format, Size: size})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", absRoot, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	logger.Debug("discovery complete", logging.Int("roots", len(roots)), logging.Int("files", len(files)))
	return files, nil
}
