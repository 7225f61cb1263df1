package testsupport

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// CalibreBook describes one book written by WriteCalibreLibrary.
type CalibreBook struct {
	ID          int64
	Title       string
	Authors     []string
	Tags        []string
	Publisher   string
	Language    string
	Series      string
	SeriesIndex float64
	PubDate     string
	// Formats maps an upper-case format (EPUB, MOBI, TXT) to file content.
	// A nil value skips writing the file while still cataloguing it.
	Formats map[string][]byte
}

const calibreSchema = `
CREATE TABLE books (id INTEGER PRIMARY KEY, title TEXT NOT NULL, path TEXT NOT NULL, pubdate TIMESTAMP, series_index REAL NOT NULL DEFAULT 1.0);
CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE books_authors_link (id INTEGER PRIMARY KEY, book INTEGER NOT NULL, author INTEGER NOT NULL);
CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE books_tags_link (id INTEGER PRIMARY KEY, book INTEGER NOT NULL, tag INTEGER NOT NULL);
CREATE TABLE publishers (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE books_publishers_link (id INTEGER PRIMARY KEY, book INTEGER NOT NULL, publisher INTEGER NOT NULL);
CREATE TABLE series (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE books_series_link (id INTEGER PRIMARY KEY, book INTEGER NOT NULL, series INTEGER NOT NULL);
CREATE TABLE languages (id INTEGER PRIMARY KEY, lang_code TEXT NOT NULL);
CREATE TABLE books_languages_link (id INTEGER PRIMARY KEY, book INTEGER NOT NULL, lang_code INTEGER NOT NULL, item_order INTEGER NOT NULL DEFAULT 0);
CREATE TABLE data (id INTEGER PRIMARY KEY, book INTEGER NOT NULL, format TEXT NOT NULL, uncompressed_size INTEGER NOT NULL DEFAULT 0, name TEXT NOT NULL);
`

// WriteCalibreLibrary creates a minimal Calibre library under dir with a
// metadata.db holding books and the book files on disk. It returns dir.
func WriteCalibreLibrary(t testing.TB, dir string, books []CalibreBook) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "metadata.db"))
	if err != nil {
		t.Fatalf("open calibre db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(calibreSchema); err != nil {
		t.Fatalf("create calibre schema: %v", err)
	}

	ids := newNameIDs()
	for _, book := range books {
		author := "Unknown"
		if len(book.Authors) > 0 {
			author = book.Authors[0]
		}
		relPath := filepath.Join(author, fmt.Sprintf("%s (%d)", book.Title, book.ID))
		var pubdate any
		if book.PubDate != "" {
			pubdate = book.PubDate
		}
		seriesIndex := book.SeriesIndex
		if seriesIndex == 0 {
			seriesIndex = 1
		}
		mustExec(t, db, `INSERT INTO books (id, title, path, pubdate, series_index) VALUES (?, ?, ?, ?, ?)`,
			book.ID, book.Title, filepath.ToSlash(relPath), pubdate, seriesIndex)

		for _, name := range book.Authors {
			id := ids.ensure(t, db, "authors", "name", name)
			mustExec(t, db, `INSERT INTO books_authors_link (book, author) VALUES (?, ?)`, book.ID, id)
		}
		for _, name := range book.Tags {
			id := ids.ensure(t, db, "tags", "name", name)
			mustExec(t, db, `INSERT INTO books_tags_link (book, tag) VALUES (?, ?)`, book.ID, id)
		}
		if book.Publisher != "" {
			id := ids.ensure(t, db, "publishers", "name", book.Publisher)
			mustExec(t, db, `INSERT INTO books_publishers_link (book, publisher) VALUES (?, ?)`, book.ID, id)
		}
		if book.Series != "" {
			id := ids.ensure(t, db, "series", "name", book.Series)
			mustExec(t, db, `INSERT INTO books_series_link (book, series) VALUES (?, ?)`, book.ID, id)
		}
		if book.Language != "" {
			id := ids.ensure(t, db, "languages", "lang_code", book.Language)
			mustExec(t, db, `INSERT INTO books_languages_link (book, lang_code, item_order) VALUES (?, ?, 0)`, book.ID, id)
		}

		baseName := fmt.Sprintf("%s - %s", book.Title, author)
		for format, content := range book.Formats {
			format = strings.ToUpper(format)
			mustExec(t, db, `INSERT INTO data (book, format, uncompressed_size, name) VALUES (?, ?, ?, ?)`,
				book.ID, format, len(content), baseName)
			if content == nil {
				continue
			}
			WriteContent(t, filepath.Join(dir, relPath, baseName+"."+strings.ToLower(format)), content)
		}
	}
	return dir
}

type nameIDs map[string]map[string]int64

func newNameIDs() nameIDs {
	return nameIDs{}
}

func (n nameIDs) ensure(t testing.TB, db *sql.DB, table, column, value string) int64 {
	t.Helper()

	if n[table] == nil {
		n[table] = map[string]int64{}
	}
	if id, ok := n[table][value]; ok {
		return id
	}
	res, err := db.Exec(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?)`, table, column), value)
	if err != nil {
		t.Fatalf("insert %s: %v", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id %s: %v", table, err)
	}
	n[table][value] = id
	return id
}

func mustExec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()

	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
