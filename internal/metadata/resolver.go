package metadata

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"shelver/internal/extractor"
	"shelver/internal/language"
	"shelver/internal/ledger"
	"shelver/internal/logging"
)

// Extractor reads metadata embedded in container files.
type Extractor interface {
	Extract(path, format string) (extractor.Result, error)
}

// Resolver builds canonical Metadata for items.
type Resolver struct {
	extractor Extractor
	hints     []pathHint
	logger    *slog.Logger

	mu          sync.Mutex
	warnedCodes map[string]struct{}
}

type pathHint struct {
	code     language.Code
	keywords []string
}

// NewResolver returns a Resolver. A nil extractor disables embedded metadata.
// hints maps a language bucket to folder-name keywords; buckets are tried in
// jpn, eng, zho order.
func NewResolver(ex Extractor, hints map[string][]string, logger *slog.Logger) *Resolver {
	r := &Resolver{
		extractor:   ex,
		logger:      logging.NewComponentLogger(logger, "metadata"),
		warnedCodes: make(map[string]struct{}),
	}
	for _, code := range []language.Code{language.Japanese, language.English, language.Chinese} {
		if keywords := hints[string(code)]; len(keywords) > 0 {
			r.hints = append(r.hints, pathHint{code: code, keywords: keywords})
		}
	}
	return r
}

// Resolve returns the canonical metadata for item. It never fails.
func (r *Resolver) Resolve(ctx context.Context, item Item) Metadata {
	logger := logging.WithContext(ctx, r.logger)

	var (
		meta         Metadata
		reportedCode string
	)
	switch {
	case item.Declared != nil:
		meta, reportedCode = fromDeclared(item.Declared)
	case r.extractor != nil && extractor.Supports(item.Format):
		result, err := r.extractor.Extract(item.FilePath, item.Format)
		if err != nil {
			logger.Debug("embedded metadata unavailable",
				logging.String("path", item.FilePath),
				logging.String("format", item.Format),
				logging.Error(err),
			)
		} else {
			meta, reportedCode = fromResult(result)
		}
	}

	meta.Language = r.normalize(logger, reportedCode)

	inferred := InferFromFilename(item.FilePath)
	if meta.Title == "" {
		meta.Title = inferred.Title
	}
	if len(meta.Authors) == 0 {
		meta.Authors = inferred.Authors
	}
	if meta.Language == language.Unknown {
		meta.Language = language.DetectScript(meta.Title)
	}

	if meta.Language == language.Unknown && item.Kind == ledger.SourceFilesystem {
		meta.Language = r.languageFromPath(item.FilePath)
	}
	return meta
}

func (r *Resolver) normalize(logger *slog.Logger, code string) language.Code {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.Unknown
	}
	normalized, known := language.Lookup(code)
	if !known {
		r.mu.Lock()
		_, warned := r.warnedCodes[strings.ToLower(code)]
		r.warnedCodes[strings.ToLower(code)] = struct{}{}
		r.mu.Unlock()
		if !warned {
			logging.WarnWithContext(logger, "unrecognized language code", "language_unrecognized",
				logging.String("code", code),
				logging.String(logging.FieldErrorHint, "add the code to the language table or fix the book metadata"),
				logging.String(logging.FieldImpact, "title script decides the language folder"),
			)
		}
	}
	return normalized
}

// languageFromPath checks the directories containing path for configured
// language keywords.
func (r *Resolver) languageFromPath(path string) language.Code {
	dir := filepath.Dir(path)
	for _, hint := range r.hints {
		for _, keyword := range hint.keywords {
			if keyword != "" && strings.Contains(dir, keyword) {
				return hint.code
			}
		}
	}
	return language.Unknown
}

func fromDeclared(d *Declared) (Metadata, string) {
	meta := Metadata{
		Title:       strings.TrimSpace(d.Title),
		Authors:     append([]Author(nil), d.Authors...),
		Publisher:   strings.TrimSpace(d.Publisher),
		Series:      strings.TrimSpace(d.Series),
		SeriesIndex: d.SeriesIndex,
		Tags:        append([]string(nil), d.Tags...),
		PubDate:     d.PubDate,
	}
	if meta.Series == "" {
		meta.SeriesIndex = nil
	}
	return meta, d.Language
}

func fromResult(res extractor.Result) (Metadata, string) {
	meta := Metadata{
		Title:       res.Title,
		Publisher:   res.Publisher,
		Series:      res.Series,
		SeriesIndex: res.SeriesIndex,
		Tags:        res.Tags,
		PubDate:     res.PubDate,
	}
	for _, name := range res.Authors {
		meta.Authors = append(meta.Authors, Author{Name: name})
	}
	if meta.Series == "" {
		meta.SeriesIndex = nil
	}
	return meta, res.Language
}
