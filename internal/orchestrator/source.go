package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"shelver/internal/catalog"
	"shelver/internal/discovery"
	"shelver/internal/failure"
	"shelver/internal/ledger"
	"shelver/internal/metadata"
)

// Source discovers items and loads them back by source id.
type Source interface {
	Kind() ledger.SourceKind
	Scan(ctx context.Context, fn func(ledger.Entry) error) error
	Load(ctx context.Context, sourceID string) (metadata.Item, error)
}

// CatalogSource exposes a Calibre library as a Source.
type CatalogSource struct {
	catalog *catalog.Catalog
}

// NewCatalogSource wraps cat.
func NewCatalogSource(cat *catalog.Catalog) *CatalogSource {
	return &CatalogSource{catalog: cat}
}

func (s *CatalogSource) Kind() ledger.SourceKind { return ledger.SourceCatalog }

// Scan registers every stored format of every book.
func (s *CatalogSource) Scan(ctx context.Context, fn func(ledger.Entry) error) error {
	return s.catalog.Entries(ctx, func(e catalog.Entry) error {
		return fn(ledger.Entry{
			Key:      ledger.Key{Kind: ledger.SourceCatalog, SourceID: e.SourceID()},
			FilePath: e.FilePath,
			Title:    e.Title,
		})
	})
}

// Load rebuilds the item for sourceID with the catalog fields declared.
func (s *CatalogSource) Load(ctx context.Context, sourceID string) (metadata.Item, error) {
	bookID, format, err := catalog.ParseSourceID(sourceID)
	if err != nil {
		return metadata.Item{}, err
	}
	book, err := s.catalog.Book(ctx, bookID)
	if err != nil {
		return metadata.Item{}, failure.Wrap(failure.ErrSourceMissing, "catalog", "load book", sourceID, err)
	}

	var stored *catalog.Format
	for i := range book.Formats {
		if book.Formats[i].Format == format {
			stored = &book.Formats[i]
			break
		}
	}
	if stored == nil {
		return metadata.Item{}, failure.Wrap(failure.ErrSourceMissing, "catalog", "load format",
			fmt.Sprintf("book %d has no %s file", bookID, format), nil)
	}

	authors := make([]metadata.Author, 0, len(book.Authors))
	for _, a := range book.Authors {
		authors = append(authors, metadata.Author{ID: a.ID, Name: a.Name})
	}
	return metadata.Item{
		Kind:     ledger.SourceCatalog,
		SourceID: sourceID,
		FilePath: s.catalog.FilePath(book.Path, *stored),
		Title:    book.Title,
		Format:   strings.ToLower(format),
		Declared: &metadata.Declared{
			Title:       book.Title,
			Authors:     authors,
			Language:    book.Language,
			Publisher:   book.Publisher,
			PubDate:     book.PubDate,
			Series:      book.Series,
			SeriesIndex: book.SeriesIndex,
			Tags:        book.Tags,
		},
	}, nil
}

// FilesystemSource exposes the configured source folders as a Source. The
// source id of a file is its absolute path.
type FilesystemSource struct {
	roots   []string
	formats []string
	logger  *slog.Logger
}

// NewFilesystemSource returns a source walking roots for formats.
func NewFilesystemSource(roots, formats []string, logger *slog.Logger) *FilesystemSource {
	return &FilesystemSource{roots: roots, formats: formats, logger: logger}
}

func (s *FilesystemSource) Kind() ledger.SourceKind { return ledger.SourceFilesystem }

func (s *FilesystemSource) Scan(ctx context.Context, fn func(ledger.Entry) error) error {
	files, err := discovery.Walk(ctx, s.roots, s.formats, s.logger)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := fn(ledger.Entry{
			Key:      ledger.Key{Kind: ledger.SourceFilesystem, SourceID: f.Path},
			FilePath: f.Path,
			Title:    f.Title(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *FilesystemSource) Load(_ context.Context, sourceID string) (metadata.Item, error) {
	base := filepath.Base(sourceID)
	ext := filepath.Ext(base)
	return metadata.Item{
		Kind:     ledger.SourceFilesystem,
		SourceID: sourceID,
		FilePath: sourceID,
		Title:    strings.TrimSuffix(base, ext),
		Format:   strings.ToLower(strings.TrimPrefix(ext, ".")),
	}, nil
}
