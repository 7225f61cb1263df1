package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/catalog"
	"shelver/internal/testsupport"
)

func openLibrary(t *testing.T, books []testsupport.CalibreBook) (*catalog.Catalog, string) {
	t.Helper()

	dir := testsupport.WriteCalibreLibrary(t, filepath.Join(t.TempDir(), "Calibre Library"), books)
	cat, err := catalog.Open(dir, filepath.Join(dir, "metadata.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	return cat, dir
}

func sampleBooks() []testsupport.CalibreBook {
	return []testsupport.CalibreBook{
		{
			ID:          12,
			Title:       "The Cuckoo's Calling",
			Authors:     []string{"Robert Galbraith"},
			Tags:        []string{"Mystery", "Detective"},
			Publisher:   "Mulholland",
			Language:    "eng",
			Series:      "Cormoran Strike",
			SeriesIndex: 1,
			PubDate:     "2013-04-18 00:00:00+00:00",
			Formats: map[string][]byte{
				"EPUB": []byte("epub bytes"),
				"MOBI": []byte("mobi bytes"),
			},
		},
		{
			ID:      13,
			Title:   "The Silkworm",
			Authors: []string{"Robert Galbraith"},
			PubDate: "2014-06-19 00:00:00+00:00",
			Formats: map[string][]byte{"EPUB": []byte("silkworm")},
		},
		{
			ID:      14,
			Title:   "Undated",
			Authors: []string{"Anon"},
			PubDate: "0101-01-01 00:00:00+00:00",
			Formats: map[string][]byte{"TXT": nil},
		},
	}
}

func TestEntriesListsEveryFormat(t *testing.T) {
	cat, dir := openLibrary(t, sampleBooks())

	var entries []catalog.Entry
	if err := cat.Entries(context.Background(), func(e catalog.Entry) error {
		entries = append(entries, e)
		return nil
	}); err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	want := []string{"12_EPUB", "12_MOBI", "13_EPUB", "14_TXT"}
	for i, id := range want {
		if got := entries[i].SourceID(); got != id {
			t.Fatalf("entry %d: got %q want %q", i, got, id)
		}
	}

	epub := entries[0]
	wantPath := filepath.Join(dir, "Robert Galbraith", "The Cuckoo's Calling (12)", "The Cuckoo's Calling - Robert Galbraith.epub")
	if epub.FilePath != wantPath {
		t.Fatalf("unexpected file path %q want %q", epub.FilePath, wantPath)
	}
	if _, err := os.Stat(epub.FilePath); err != nil {
		t.Fatalf("entry file should exist: %v", err)
	}
	if _, err := os.Stat(entries[3].FilePath); !os.IsNotExist(err) {
		t.Fatalf("uncatalogued file should be absent, stat err=%v", err)
	}
}

func TestEntriesStopsOnCallbackError(t *testing.T) {
	cat, _ := openLibrary(t, sampleBooks())
	stop := errors.New("stop")
	calls := 0
	err := cat.Entries(context.Background(), func(catalog.Entry) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected callback error after one call, got err=%v calls=%d", err, calls)
	}
}

func TestBookLoadsFullRecord(t *testing.T) {
	cat, _ := openLibrary(t, sampleBooks())

	book, err := cat.Book(context.Background(), 12)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if book.Title != "The Cuckoo's Calling" || book.Publisher != "Mulholland" || book.Language != "eng" {
		t.Fatalf("unexpected book %#v", book)
	}
	if len(book.Authors) != 1 || book.Authors[0].Name != "Robert Galbraith" || book.Authors[0].ID == 0 {
		t.Fatalf("unexpected authors %#v", book.Authors)
	}
	if book.Series != "Cormoran Strike" || book.SeriesIndex == nil || *book.SeriesIndex != 1 {
		t.Fatalf("unexpected series %q %v", book.Series, book.SeriesIndex)
	}
	if len(book.Tags) != 2 || book.Tags[0] != "Detective" {
		t.Fatalf("expected sorted tags, got %v", book.Tags)
	}
	if len(book.Formats) != 2 || book.Formats[0].Format != "EPUB" {
		t.Fatalf("unexpected formats %#v", book.Formats)
	}
	if catalog.YearMonth(book.PubDate) != "2013-04" {
		t.Fatalf("unexpected pubdate %q", book.PubDate)
	}

	standalone, err := cat.Book(context.Background(), 13)
	if err != nil {
		t.Fatalf("Book(13): %v", err)
	}
	if standalone.Series != "" || standalone.SeriesIndex != nil {
		t.Fatalf("standalone must not carry a series index: %#v", standalone)
	}

	undated, err := cat.Book(context.Background(), 14)
	if err != nil {
		t.Fatalf("Book(14): %v", err)
	}
	if undated.PubDate != "" {
		t.Fatalf("placeholder date should be dropped, got %q", undated.PubDate)
	}
}

func TestBookNotFound(t *testing.T) {
	cat, _ := openLibrary(t, sampleBooks())
	if _, err := cat.Book(context.Background(), 999); !errors.Is(err, catalog.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestEarliestPubDate(t *testing.T) {
	cat, _ := openLibrary(t, sampleBooks())
	ctx := context.Background()

	id, ok, err := cat.AuthorID(ctx, "Robert Galbraith")
	if err != nil || !ok {
		t.Fatalf("AuthorID: ok=%v err=%v", ok, err)
	}
	got, err := cat.EarliestPubDate(ctx, id)
	if err != nil {
		t.Fatalf("EarliestPubDate: %v", err)
	}
	if got != "2013-04" {
		t.Fatalf("expected 2013-04, got %q", got)
	}

	anon, ok, err := cat.AuthorID(ctx, "Anon")
	if err != nil || !ok {
		t.Fatalf("AuthorID(Anon): ok=%v err=%v", ok, err)
	}
	got, err = cat.EarliestPubDate(ctx, anon)
	if err != nil {
		t.Fatalf("EarliestPubDate(Anon): %v", err)
	}
	if got != "" {
		t.Fatalf("expected no date for placeholder-only author, got %q", got)
	}

	if _, ok, err := cat.AuthorID(ctx, "Nobody"); err != nil || ok {
		t.Fatalf("expected unknown author miss, ok=%v err=%v", ok, err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	if _, err := catalog.Open(dir, filepath.Join(dir, "metadata.db")); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestSourceIDRoundTrip(t *testing.T) {
	id := catalog.SourceID(42, "epub")
	if id != "42_EPUB" {
		t.Fatalf("unexpected source id %q", id)
	}
	book, format, err := catalog.ParseSourceID(id)
	if err != nil || book != 42 || format != "EPUB" {
		t.Fatalf("ParseSourceID: %d %q %v", book, format, err)
	}
	for _, bad := range []string{"", "42", "x_EPUB", "42_"} {
		if _, _, err := catalog.ParseSourceID(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestYearMonth(t *testing.T) {
	cases := map[string]string{
		"2013-04-18 00:00:00+00:00": "2013-04",
		"2013-04-18T00:00:00Z":      "2013-04",
		"0101-01-01T00:00:00Z":      "",
		"2013":                      "",
		"2013-13-01":                "",
		"":                          "",
	}
	for in, want := range cases {
		if got := catalog.YearMonth(in); got != want {
			t.Fatalf("YearMonth(%q) = %q, want %q", in, got, want)
		}
	}
}
