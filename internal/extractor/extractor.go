package extractor

import (
	"strings"

	"github.com/pkg/errors"
)

// Supported container formats.
const (
	FormatEPUB = "epub"
	FormatMOBI = "mobi"
	FormatAZW3 = "azw3"
)

var (
	// ErrUnsupportedFormat is returned for formats without an embedded
	// metadata reader.
	ErrUnsupportedFormat = errors.New("unsupported container format")
	// ErrUnexpectedContent is returned when the file content does not match
	// its declared format.
	ErrUnexpectedContent = errors.New("content does not match declared format")
)

// Result is the metadata embedded in a container file. Empty fields were not
// present.
type Result struct {
	Title       string
	Authors     []string
	Language    string
	Publisher   string
	PubDate     string
	Series      string
	SeriesIndex *float64
	Tags        []string
}

// Empty reports whether nothing useful was extracted.
func (r Result) Empty() bool {
	return r.Title == "" && len(r.Authors) == 0 && r.Language == "" && r.Publisher == ""
}

// Extractor reads embedded metadata. The zero value is ready to use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether format has an embedded metadata reader.
func Supports(format string) bool {
	switch normalizeFormat(format) {
	case FormatEPUB, FormatMOBI, FormatAZW3:
		return true
	default:
		return false
	}
}

// Extract reads the metadata embedded in the file at path, which is declared
// to be of format.
func (e *Extractor) Extract(path, format string) (Result, error) {
	format = normalizeFormat(format)
	if !Supports(format) {
		return Result{}, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	if err := checkContent(path, format); err != nil {
		return Result{}, err
	}

	var (
		result Result
		err    error
	)
	switch format {
	case FormatEPUB:
		result, err = parseEPUB(path)
	default:
		result, err = parseMOBI(path)
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "extract %s", path)
	}
	return result.clean(), nil
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}

func (r Result) clean() Result {
	r.Title = strings.TrimSpace(r.Title)
	r.Language = strings.TrimSpace(r.Language)
	r.Publisher = strings.TrimSpace(r.Publisher)
	r.PubDate = strings.TrimSpace(r.PubDate)
	r.Series = strings.TrimSpace(r.Series)
	r.Authors = compact(r.Authors)
	r.Tags = compact(r.Tags)
	return r
}

func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
