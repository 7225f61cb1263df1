package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"shelver/internal/ledger"
	"shelver/internal/logging"
	"shelver/internal/taxonomy"
)

var errPreviewFull = errors.New("preview limit reached")

// FailureLines renders failed records as "kind:id | path | error".
func FailureLines(records []ledger.Record) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("%s | %s | %s", rec.Key, rec.FilePath, rec.ErrorMessage))
	}
	return lines
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// PreviewRow is one planned placement.
type PreviewRow struct {
	Key      ledger.Key
	Source   string
	Target   string
	Language string
	Category string
	Err      string
}

// Preview resolves and places the first limit discovered items on paper. It
// touches neither the ledger nor the target tree, writes the rendered report
// to the preview report path and returns it.
func (o *Orchestrator) Preview(ctx context.Context, limit int) (string, []PreviewRow, error) {
	if limit <= 0 {
		limit = o.cfg.Run.PreviewLimit
	}
	sources, cat, closeSources, err := o.openSources()
	if err != nil {
		return "", nil, err
	}
	defer closeSources()

	authors := newAuthorDates(cat, o.logger)
	var rows []PreviewRow
	for _, src := range sources {
		err := src.Scan(ctx, func(entry ledger.Entry) error {
			if len(rows) >= limit {
				return errPreviewFull
			}
			rows = append(rows, o.previewRow(ctx, src, entry, authors))
			return nil
		})
		if err != nil && !errors.Is(err, errPreviewFull) {
			return "", nil, fmt.Errorf("scan %s: %w", src.Kind(), err)
		}
	}

	report := RenderPreview(rows)
	path := o.cfg.PreviewReportPath()
	if err := writeLines(path, []string{report}); err != nil {
		return report, rows, fmt.Errorf("write preview report: %w", err)
	}
	o.logger.Info("preview written", logging.String("path", path), logging.Int("items", len(rows)))
	return report, rows, nil
}

func (o *Orchestrator) previewRow(ctx context.Context, src Source, entry ledger.Entry, authors *authorDates) PreviewRow {
	row := PreviewRow{Key: entry.Key, Source: entry.FilePath}
	item, err := src.Load(ctx, entry.Key.SourceID)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	if !o.accepts(item.Format) {
		row.Err = "unsupported format " + item.Format
		return row
	}
	meta := o.resolver.Resolve(ctx, item)
	target, placement := o.builder.Target(taxonomy.Request{
		Metadata:   meta,
		AuthorDate: authors.Lookup(ctx, meta),
	}, item.Format)
	row.Target = target
	row.Language = string(placement.Language)
	row.Category = strings.TrimSpace(placement.Category + " " + placement.Subcategory)
	return row
}

// RenderPreview renders rows as a plain-text table.
func RenderPreview(rows []PreviewRow) string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("Preview (%d items)", len(rows)))
	tw.AppendHeader(table.Row{"Item", "Language", "Category", "Source", "Target"})
	for _, row := range rows {
		target := row.Target
		if row.Err != "" {
			target = "ERROR: " + row.Err
		}
		tw.AppendRow(table.Row{row.Key.String(), row.Language, row.Category, row.Source, target})
	}
	tw.SetStyle(table.StyleLight)
	return tw.Render()
}
