package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrBookNotFound is returned when a book id is absent from the catalog.
var ErrBookNotFound = errors.New("catalog book not found")

// calibreNullDate is the placeholder Calibre stores for unknown dates.
const calibreNullDate = "0101"

// Catalog is a read-only handle on a Calibre library.
type Catalog struct {
	db      *sql.DB
	library string
}

// Author is a catalog author.
type Author struct {
	ID   int64
	Name string
}

// Format is one stored file of a book.
type Format struct {
	Format string
	Name   string
}

// Entry is one (book, format) pair discovered in the catalog.
type Entry struct {
	BookID   int64
	Title    string
	Format   string
	FilePath string
}

// SourceID returns the ledger source id of the entry.
func (e Entry) SourceID() string {
	return SourceID(e.BookID, e.Format)
}

// Book is the full catalog record of one book.
type Book struct {
	ID          int64
	Title       string
	Path        string
	PubDate     string
	Authors     []Author
	Series      string
	SeriesIndex *float64
	Tags        []string
	Publisher   string
	Language    string
	Formats     []Format
}

// Open opens the Calibre database at dbPath read-only. library is the
// directory book paths are relative to.
func Open(library, dbPath string) (*Catalog, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("catalog database path is required")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("catalog database: %w", err)
	}
	db, err := sql.Open("sqlite", readOnlyDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &Catalog{db: db, library: library}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Library returns the library root directory.
func (c *Catalog) Library() string {
	return c.library
}

// FilePath returns where a stored format of a book lives on disk.
func (c *Catalog) FilePath(bookPath string, f Format) string {
	return filepath.Join(c.library, filepath.FromSlash(bookPath), f.Name+"."+strings.ToLower(f.Format))
}

// Entries calls fn for every (book, format) pair ordered by book id and
// format.
func (c *Catalog) Entries(ctx context.Context, fn func(Entry) error) error {
	rows, err := c.db.QueryContext(ctx, `
        SELECT b.id, b.title, b.path, d.format, d.name
        FROM books b
        JOIN data d ON d.book = b.id
        ORDER BY b.id, d.format`)
	if err != nil {
		return fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry    Entry
			bookPath string
			format   Format
		)
		if err := rows.Scan(&entry.BookID, &entry.Title, &bookPath, &format.Format, &format.Name); err != nil {
			return fmt.Errorf("scan catalog entry: %w", err)
		}
		entry.Format = strings.ToUpper(format.Format)
		entry.FilePath = c.FilePath(bookPath, format)
		if err := fn(entry); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Book loads the full record of one book.
func (c *Catalog) Book(ctx context.Context, id int64) (*Book, error) {
	book := &Book{ID: id}
	var (
		pubdate     sql.NullString
		seriesIndex sql.NullFloat64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT title, path, pubdate, series_index FROM books WHERE id = ?`, id,
	).Scan(&book.Title, &book.Path, &pubdate, &seriesIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load book %d: %w", id, err)
	}
	if pubdate.Valid && !strings.HasPrefix(pubdate.String, calibreNullDate) {
		book.PubDate = pubdate.String
	}

	if book.Authors, err = c.authors(ctx, id); err != nil {
		return nil, err
	}
	if book.Series, err = c.firstString(ctx,
		`SELECT s.name FROM series s JOIN books_series_link bsl ON s.id = bsl.series WHERE bsl.book = ?`, id); err != nil {
		return nil, err
	}
	if book.Series != "" && seriesIndex.Valid {
		idx := seriesIndex.Float64
		book.SeriesIndex = &idx
	}
	if book.Tags, err = c.strings(ctx,
		`SELECT t.name FROM tags t JOIN books_tags_link btl ON t.id = btl.tag WHERE btl.book = ? ORDER BY t.name`, id); err != nil {
		return nil, err
	}
	if book.Publisher, err = c.firstString(ctx,
		`SELECT p.name FROM publishers p JOIN books_publishers_link bpl ON p.id = bpl.publisher WHERE bpl.book = ?`, id); err != nil {
		return nil, err
	}
	if book.Language, err = c.firstString(ctx,
		`SELECT l.lang_code FROM books_languages_link bll JOIN languages l ON bll.lang_code = l.id
         WHERE bll.book = ? ORDER BY bll.item_order`, id); err != nil {
		return nil, err
	}
	if book.Formats, err = c.formats(ctx, id); err != nil {
		return nil, err
	}
	return book, nil
}

// EarliestPubDate returns the "YYYY-MM" of the author's earliest dated
// book, or "" when no book of the author carries a date.
func (c *Catalog) EarliestPubDate(ctx context.Context, authorID int64) (string, error) {
	var pubdate sql.NullString
	err := c.db.QueryRowContext(ctx, `
        SELECT b.pubdate
        FROM books b
        JOIN books_authors_link bal ON b.id = bal.book
        WHERE bal.author = ? AND b.pubdate IS NOT NULL AND b.pubdate NOT LIKE '0101%'
        ORDER BY b.pubdate
        LIMIT 1`, authorID).Scan(&pubdate)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("earliest pubdate for author %d: %w", authorID, err)
	}
	return YearMonth(pubdate.String), nil
}

// AuthorID looks up a catalog author by exact name.
func (c *Catalog) AuthorID(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `SELECT id FROM authors WHERE name = ? LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("author lookup %q: %w", name, err)
	}
	return id, true, nil
}

// YearMonth returns the "YYYY-MM" prefix of a date string, or "" when the
// value does not start with one.
func YearMonth(value string) string {
	value = strings.TrimSpace(value)
	if len(value) < 7 || value[4] != '-' {
		return ""
	}
	year, month := value[:4], value[5:7]
	if _, err := strconv.Atoi(year); err != nil {
		return ""
	}
	if m, err := strconv.Atoi(month); err != nil || m < 1 || m > 12 {
		return ""
	}
	if year == calibreNullDate {
		return ""
	}
	return year + "-" + month
}

// SourceID builds the ledger source id for a stored format.
func SourceID(bookID int64, format string) string {
	return fmt.Sprintf("%d_%s", bookID, strings.ToUpper(format))
}

// ParseSourceID splits a source id built by SourceID.
func ParseSourceID(id string) (int64, string, error) {
	rawID, format, ok := strings.Cut(id, "_")
	if !ok || format == "" {
		return 0, "", fmt.Errorf("malformed catalog source id %q", id)
	}
	bookID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed catalog source id %q: %w", id, err)
	}
	return bookID, strings.ToUpper(format), nil
}

func (c *Catalog) authors(ctx context.Context, bookID int64) ([]Author, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT a.id, a.name
        FROM authors a
        JOIN books_authors_link bal ON a.id = bal.author
        WHERE bal.book = ?
        ORDER BY bal.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("load authors of %d: %w", bookID, err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (c *Catalog) formats(ctx context.Context, bookID int64) ([]Format, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT format, name FROM data WHERE book = ? ORDER BY format`, bookID)
	if err != nil {
		return nil, fmt.Errorf("load formats of %d: %w", bookID, err)
	}
	defer rows.Close()

	var formats []Format
	for rows.Next() {
		var f Format
		if err := rows.Scan(&f.Format, &f.Name); err != nil {
			return nil, err
		}
		f.Format = strings.ToUpper(f.Format)
		formats = append(formats, f)
	}
	return formats, rows.Err()
}

func (c *Catalog) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (c *Catalog) firstString(ctx context.Context, query string, args ...any) (string, error) {
	values, err := c.strings(ctx, query, args...)
	if err != nil || len(values) == 0 {
		return "", err
	}
	return values[0], nil
}

func readOnlyDSN(path string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return "file:" + escaped + "?mode=ro"
}
