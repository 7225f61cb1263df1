package metadata_test

import (
	"context"
	"errors"
	"testing"

	"shelver/internal/extractor"
	"shelver/internal/language"
	"shelver/internal/ledger"
	"shelver/internal/logging"
	"shelver/internal/metadata"
)

type stubExtractor struct {
	result extractor.Result
	err    error
	calls  int
}

func (s *stubExtractor) Extract(string, string) (extractor.Result, error) {
	s.calls++
	return s.result, s.err
}

func newResolver(ex metadata.Extractor) *metadata.Resolver {
	hints := map[string][]string{
		"jpn": {"日语", "日文"},
		"eng": {"英语", "英文"},
		"zho": {"中文", "中国"},
	}
	return metadata.NewResolver(ex, hints, logging.NewNop())
}

func TestResolveFallsBackToFilenameOnExtractionFailure(t *testing.T) {
	ex := &stubExtractor{err: errors.New("corrupt archive")}
	item := metadata.Item{
		Kind:     ledger.SourceFilesystem,
		SourceID: "/in/[Tanaka Yuki] 異世界転生したらスライムだった件.epub",
		FilePath: "/in/[Tanaka Yuki] 異世界転生したらスライムだった件.epub",
		Format:   "epub",
	}

	meta := newResolver(ex).Resolve(context.Background(), item)

	if ex.calls != 1 {
		t.Fatalf("expected extractor to be called once, got %d", ex.calls)
	}
	if meta.Title != "異世界転生したらスライムだった件" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
	if names := meta.AuthorNames(); len(names) != 1 || names[0] != "Tanaka Yuki" {
		t.Fatalf("unexpected authors %v", names)
	}
	if meta.Language != language.Japanese {
		t.Fatalf("expected jpn, got %q", meta.Language)
	}
}

func TestResolveBracketedFilenameIgnoresAuthorScript(t *testing.T) {
	cases := []struct {
		name string
		path string
		want language.Code
	}{
		{"no hint", "/in/[Tanaka Yuki] 異世界転生.epub", language.Unknown},
		{"japanese folder", "/books/日语/[Tanaka Yuki] 異世界転生.epub", language.Japanese},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := &stubExtractor{err: errors.New("not a zip file")}
			item := metadata.Item{Kind: ledger.SourceFilesystem, SourceID: tc.path, FilePath: tc.path, Format: "epub"}

			meta := newResolver(ex).Resolve(context.Background(), item)

			if meta.Title != "異世界転生" {
				t.Fatalf("unexpected title %q", meta.Title)
			}
			if names := meta.AuthorNames(); len(names) != 1 || names[0] != "Tanaka Yuki" {
				t.Fatalf("unexpected authors %v", names)
			}
			if meta.Language != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, meta.Language)
			}
		})
	}
}

func TestResolveBackfillsFieldByField(t *testing.T) {
	ex := &stubExtractor{result: extractor.Result{
		Title:     "Embedded Title",
		Publisher: "Tor",
	}}
	item := metadata.Item{
		Kind:     ledger.SourceFilesystem,
		SourceID: "/in/Filename Title - Jane Doe.epub",
		FilePath: "/in/Filename Title - Jane Doe.epub",
		Format:   "epub",
	}

	meta := newResolver(ex).Resolve(context.Background(), item)

	if meta.Title != "Embedded Title" {
		t.Fatalf("present title must not be overwritten, got %q", meta.Title)
	}
	if names := meta.AuthorNames(); len(names) != 1 || names[0] != "Jane Doe" {
		t.Fatalf("expected authors from filename, got %v", names)
	}
	if meta.Publisher != "Tor" {
		t.Fatalf("unexpected publisher %q", meta.Publisher)
	}
	if meta.Language != language.English {
		t.Fatalf("expected title script to give eng, got %q", meta.Language)
	}
}

func TestResolveDeclaredSkipsExtractor(t *testing.T) {
	ex := &stubExtractor{}
	idx := 3.0
	item := metadata.Item{
		Kind:     ledger.SourceCatalog,
		SourceID: "7_EPUB",
		FilePath: "/lib/a/b.epub",
		Format:   "epub",
		Declared: &metadata.Declared{
			Title:       "Foundation",
			Authors:     []metadata.Author{{ID: 4, Name: "Isaac Asimov"}},
			Language:    "en",
			Series:      "Foundation",
			SeriesIndex: &idx,
			Tags:        []string{"Science Fiction"},
		},
	}

	meta := newResolver(ex).Resolve(context.Background(), item)

	if ex.calls != 0 {
		t.Fatal("declared items must not be re-extracted")
	}
	if meta.Language != language.English {
		t.Fatalf("expected eng, got %q", meta.Language)
	}
	if a, ok := meta.FirstAuthor(); !ok || a.ID != 4 {
		t.Fatalf("expected catalog author id to survive, got %#v", a)
	}
	if meta.SeriesIndex == nil || *meta.SeriesIndex != 3 {
		t.Fatalf("unexpected series index %v", meta.SeriesIndex)
	}
}

func TestResolveLanguageOrder(t *testing.T) {
	cases := []struct {
		name     string
		reported string
		title    string
		path     string
		kind     ledger.SourceKind
		want     language.Code
	}{
		{"reported code wins", "zh-CN", "The English Title Here", "/in/x.epub", ledger.SourceFilesystem, language.Chinese},
		{"unknown code uses title script", "tlh", "吾輩は猫である完全版上巻", "/in/x.epub", ledger.SourceFilesystem, language.Japanese},
		{"short title falls to path hint", "", "Short", "/books/日语/x.epub", ledger.SourceFilesystem, language.Japanese},
		{"path hints only for filesystem items", "", "Short", "/books/英文/x.epub", ledger.SourceCatalog, language.Unknown},
		{"english path hint", "", "Short", "/books/英文/x.epub", ledger.SourceFilesystem, language.English},
		{"nothing matches", "", "Short", "/books/misc/x.epub", ledger.SourceFilesystem, language.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := &stubExtractor{result: extractor.Result{Title: tc.title, Language: tc.reported}}
			item := metadata.Item{Kind: tc.kind, SourceID: tc.path, FilePath: tc.path, Format: "epub"}
			if tc.kind == ledger.SourceCatalog {
				item.Declared = &metadata.Declared{Title: tc.title, Language: tc.reported}
			}
			got := newResolver(ex).Resolve(context.Background(), item).Language
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveSkipsExtractorForTXT(t *testing.T) {
	ex := &stubExtractor{}
	item := metadata.Item{
		Kind:     ledger.SourceFilesystem,
		SourceID: "/in/notes.txt",
		FilePath: "/in/notes.txt",
		Format:   "txt",
	}
	meta := newResolver(ex).Resolve(context.Background(), item)
	if ex.calls != 0 {
		t.Fatal("txt files have no embedded metadata")
	}
	if meta.Title != "notes" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
}

func TestResolveDropsIndexWithoutSeries(t *testing.T) {
	idx := 2.0
	ex := &stubExtractor{result: extractor.Result{Title: "Lonely Index", SeriesIndex: &idx}}
	item := metadata.Item{Kind: ledger.SourceFilesystem, SourceID: "/in/a.epub", FilePath: "/in/a.epub", Format: "epub"}
	meta := newResolver(ex).Resolve(context.Background(), item)
	if meta.SeriesIndex != nil {
		t.Fatalf("expected nil series index without a series, got %v", *meta.SeriesIndex)
	}
}
