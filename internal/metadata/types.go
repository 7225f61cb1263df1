package metadata

import (
	"shelver/internal/language"
	"shelver/internal/ledger"
)

// Author is a book author. ID is the catalog author id, or 0 when the name
// did not come from the catalog.
type Author struct {
	ID   int64
	Name string
}

// Declared carries fields a catalog already knows about an item.
type Declared struct {
	Title       string
	Authors     []Author
	Language    string
	Publisher   string
	PubDate     string
	Series      string
	SeriesIndex *float64
	Tags        []string
}

// Item is one discovered book file.
type Item struct {
	Kind     ledger.SourceKind
	SourceID string
	FilePath string
	Title    string
	// Format is the lower-case extension without the dot.
	Format   string
	Declared *Declared
}

// Key returns the ledger identity of the item.
func (i Item) Key() ledger.Key {
	return ledger.Key{Kind: i.Kind, SourceID: i.SourceID}
}

// Metadata is the resolved description of an item. It is rebuilt on every
// processing attempt.
type Metadata struct {
	Title       string
	Authors     []Author
	Language    language.Code
	Publisher   string
	Series      string
	SeriesIndex *float64
	Tags        []string
	PubDate     string
}

// FirstAuthor returns the first listed author.
func (m Metadata) FirstAuthor() (Author, bool) {
	if len(m.Authors) == 0 {
		return Author{}, false
	}
	return m.Authors[0], true
}

// AuthorNames returns the author names in order.
func (m Metadata) AuthorNames() []string {
	names := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		names = append(names, a.Name)
	}
	return names
}

// HasSeries reports whether the item belongs to a named series.
func (m Metadata) HasSeries() bool {
	return m.Series != ""
}
