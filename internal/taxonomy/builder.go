package taxonomy

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"shelver/internal/config"
	"shelver/internal/language"
	"shelver/internal/metadata"
	"shelver/internal/textutil"
)

// Folder names that are not configurable.
const (
	SeriesBucket     = "【有系列】"
	StandaloneBucket = "【单行本】"
	UnknownDateTag   = "[未知]"
	UnknownAuthor    = "Unknown"
	UntitledBook     = "Untitled"

	// TruncatedLeafRunes is the length the last segment is cut to when the
	// full path exceeds the limit.
	TruncatedLeafRunes = 50
)

// Request is the input of Build.
type Request struct {
	Metadata metadata.Metadata
	// AuthorDate is the first author's earliest publication month as
	// "YYYY-MM", or empty when unknown.
	AuthorDate string
}

// Placement is where a book goes.
type Placement struct {
	Dir         string
	Language    language.Code
	Category    string
	Subcategory string
	// Truncated reports that the last segment was shortened to fit the path
	// length limit.
	Truncated bool
}

// Builder derives target paths from static taxonomy configuration.
type Builder struct {
	root     string
	taxonomy config.Taxonomy
}

// NewBuilder returns a Builder rooted at targetRoot.
func NewBuilder(targetRoot string, taxonomy config.Taxonomy) *Builder {
	return &Builder{
		root:     targetRoot,
		taxonomy: taxonomy,
	}
}

// Build returns the directory a book belongs in.
func (b *Builder) Build(req Request) Placement {
	meta := req.Metadata
	lang := meta.Language
	if !lang.Valid() {
		lang = language.Unknown
	}
	placement := Placement{Language: lang}

	segments := []string{b.root, b.languageFolder(lang)}
	switch lang {
	case language.Japanese:
		placement.Category = ClassifyJapanese(meta.Tags, meta.Publisher, b.taxonomy.LightNovelKeywords)
		segments = append(segments, textutil.Sanitize(b.taxonomy.JapaneseCategories[placement.Category]))
		if placement.Category == config.CategoryLightNovel {
			if meta.HasSeries() {
				segments = append(segments, SeriesBucket)
			} else {
				segments = append(segments, StandaloneBucket)
			}
		}
	case language.English:
		placement.Category, placement.Subcategory = ClassifyEnglish(meta.Tags, b.taxonomy.Fiction)
		segments = append(segments, textutil.Sanitize(b.taxonomy.EnglishCategories[placement.Category]))
		if placement.Subcategory != "" {
			segments = append(segments, textutil.Sanitize(cases.Title(xlanguage.English).String(placement.Subcategory)))
		}
	}
	segments = append(segments, AuthorFolder(meta, req.AuthorDate), bookFolder(meta))

	dir := filepath.Join(segments...)
	if limit := b.taxonomy.MaxPathLength; limit > 0 && utf8.RuneCountInString(dir) > limit {
		leaf := textutil.Sanitize(textutil.TruncateRunes(segments[len(segments)-1], TruncatedLeafRunes))
		if leaf == "" {
			leaf = UntitledBook
		}
		dir = filepath.Join(filepath.Dir(dir), leaf)
		placement.Truncated = true
	}
	placement.Dir = dir
	return placement
}

// Target returns the full file path for a book file with extension ext. TXT
// files bypass the taxonomy and go to the TXT folder.
func (b *Builder) Target(req Request, ext string) (string, Placement) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "txt" {
		path := b.TXTPath(req.Metadata)
		return path, Placement{Dir: filepath.Dir(path), Language: req.Metadata.Language}
	}
	placement := b.Build(req)
	return filepath.Join(placement.Dir, FileName(req.Metadata, ext)), placement
}

// TXTPath returns root/txt_folder/title.txt.
func (b *Builder) TXTPath(meta metadata.Metadata) string {
	return filepath.Join(b.root, textutil.Sanitize(b.taxonomy.TXTFolder), titleSegment(meta)+".txt")
}

func (b *Builder) languageFolder(lang language.Code) string {
	folder := b.taxonomy.LanguageFolders[string(lang)]
	if strings.TrimSpace(folder) == "" {
		folder = b.taxonomy.LanguageFolders[string(language.Unknown)]
	}
	return textutil.Sanitize(folder)
}

// AuthorFolder returns "[YYYY-MM] Name" for the first author, "[未知] Name"
// without a date, or "[未知] Unknown" without authors.
func AuthorFolder(meta metadata.Metadata, authorDate string) string {
	author, ok := meta.FirstAuthor()
	name := textutil.Sanitize(author.Name)
	if !ok || name == "" {
		return UnknownDateTag + " " + UnknownAuthor
	}
	if authorDate = strings.TrimSpace(authorDate); authorDate != "" {
		return fmt.Sprintf("[%s] %s", authorDate, name)
	}
	return UnknownDateTag + " " + name
}

// FileName returns "NN title.ext" for series books with an index (the index
// floored and zero-padded to two digits) and "title.ext" otherwise. A
// negative or non-finite index is ignored.
func FileName(meta metadata.Metadata, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	title := titleSegment(meta)
	if meta.HasSeries() && meta.SeriesIndex != nil {
		if idx := *meta.SeriesIndex; !math.IsNaN(idx) && !math.IsInf(idx, 0) && idx >= 0 {
			return fmt.Sprintf("%02d %s.%s", int(math.Floor(idx)), title, ext)
		}
	}
	return fmt.Sprintf("%s.%s", title, ext)
}

func bookFolder(meta metadata.Metadata) string {
	if meta.HasSeries() {
		if series := textutil.Sanitize(meta.Series); series != "" {
			return series
		}
	}
	return titleSegment(meta)
}

func titleSegment(meta metadata.Metadata) string {
	if title := textutil.Sanitize(meta.Title); title != "" {
		return title
	}
	return UntitledBook
}
