package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"shelver/internal/language"
)

var bracketAuthorPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+)$`)

// InferFromFilename derives metadata from a file name. Recognized forms are
// "[Author] Title" and "Title - Author"; anything else becomes the title.
// Language comes from the script of the inferred title only; an author name
// in the stem never votes.
func InferFromFilename(path string) Metadata {
	base := filepath.Base(path)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))

	var meta Metadata
	if m := bracketAuthorPattern.FindStringSubmatch(stem); m != nil {
		meta.Authors = []Author{{Name: strings.TrimSpace(m[1])}}
		meta.Title = strings.TrimSpace(m[2])
	} else if title, author, ok := strings.Cut(stem, " - "); ok {
		meta.Title = strings.TrimSpace(title)
		if author = strings.TrimSpace(author); author != "" {
			meta.Authors = []Author{{Name: author}}
		}
	} else {
		meta.Title = stem
	}
	meta.Language = language.DetectScript(meta.Title)
	return meta
}
