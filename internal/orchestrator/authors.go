package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"shelver/internal/catalog"
	"shelver/internal/logging"
	"shelver/internal/metadata"
)

// authorDates memoizes each author's earliest publication month for one run.
// Filesystem authors are matched to catalog authors by exact name.
type authorDates struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	byID    map[int64]string
	byName  map[string]int64
}

func newAuthorDates(cat *catalog.Catalog, logger *slog.Logger) *authorDates {
	return &authorDates{
		catalog: cat,
		logger:  logger,
		byID:    make(map[int64]string),
		byName:  make(map[string]int64),
	}
}

// Lookup returns "YYYY-MM" for the first author of meta, or "".
func (a *authorDates) Lookup(ctx context.Context, meta metadata.Metadata) string {
	if a == nil || a.catalog == nil {
		return ""
	}
	author, ok := meta.FirstAuthor()
	if !ok {
		return ""
	}

	id := author.ID
	if id == 0 {
		name := strings.TrimSpace(author.Name)
		if name == "" {
			return ""
		}
		cached, seen := a.byName[name]
		if !seen {
			found, ok, err := a.catalog.AuthorID(ctx, name)
			if err != nil {
				a.logger.Debug("author lookup failed", logging.String("author", name), logging.Error(err))
				return ""
			}
			if !ok {
				found = 0
			}
			a.byName[name] = found
			cached = found
		}
		if cached == 0 {
			return ""
		}
		id = cached
	}

	if date, seen := a.byID[id]; seen {
		return date
	}
	date, err := a.catalog.EarliestPubDate(ctx, id)
	if err != nil {
		a.logger.Debug("author date lookup failed", logging.Int64("author_id", id), logging.Error(err))
		return ""
	}
	a.byID[id] = date
	return date
}
