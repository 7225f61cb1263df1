package fingerprint_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/failure"
	"shelver/internal/fingerprint"
	"shelver/internal/testsupport"
)

func identify(t *testing.T, path string) *fingerprint.Fingerprint {
	t.Helper()
	fp, err := fingerprint.Identify(path)
	if err != nil {
		t.Fatalf("Identify(%s): %v", path, err)
	}
	return fp
}

func TestIdentifyMissingFile(t *testing.T) {
	_, err := fingerprint.Identify(filepath.Join(t.TempDir(), "gone.epub"))
	if !errors.Is(err, failure.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

func TestIdentifyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Some Book.EPUB")
	testsupport.WriteFile(t, path, 1234, 1)
	fp := identify(t, path)
	if fp.Size != 1234 || fp.Ext != "epub" || fp.DisplayName != "Some Book.EPUB" {
		t.Fatalf("unexpected fingerprint %+v", fp)
	}
}

func TestSameContentIdenticalBytesDifferentNames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "catalog", "Foundation - Isaac Asimov.epub")
	b := filepath.Join(dir, "incoming", "totally different name.epub")
	testsupport.WriteFile(t, a, 300*1024, 7)
	testsupport.WriteFile(t, b, 300*1024, 7)

	if !fingerprint.SameContent(identify(t, a), identify(t, b)) {
		t.Fatal("expected identical content to match")
	}
}

func TestSameContentEqualSizeDifferentBytes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.epub")
	b := filepath.Join(dir, "a copy.epub")
	testsupport.WriteFile(t, a, 4096, 1)
	testsupport.WriteFile(t, b, 4096, 9)

	if fingerprint.SameContent(identify(t, a), identify(t, b)) {
		t.Fatal("equal size with different bytes must not match")
	}
}

func TestSameContentDifferentExtensions(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "book.epub")
	b := filepath.Join(dir, "book.mobi")
	testsupport.WriteFile(t, a, 100, 3)
	testsupport.WriteFile(t, b, 100, 3)

	if fingerprint.SameContent(identify(t, a), identify(t, b)) {
		t.Fatal("different formats must never match")
	}
}

func TestSameContentDifferentSizeUsesNames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "one", "The Name of the Wind.epub")
	b := filepath.Join(dir, "two", "the name of the wind.epub")
	c := filepath.Join(dir, "two", "The Wise Man's Fear.epub")
	testsupport.WriteFile(t, a, 1000, 1)
	testsupport.WriteFile(t, b, 2000, 2)
	testsupport.WriteFile(t, c, 3000, 3)

	fa, fb, fc := identify(t, a), identify(t, b), identify(t, c)
	if !fingerprint.SameContent(fa, fb) {
		t.Fatal("near-identical names of the same format should match")
	}
	if fingerprint.SameContent(fa, fc) {
		t.Fatal("different titles must not match")
	}
}

func TestSameContentDigestErrorFailsOpen(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.epub")
	b := filepath.Join(dir, "b.epub")
	testsupport.WriteFile(t, a, 512, 5)
	testsupport.WriteFile(t, b, 512, 5)
	fa, fb := identify(t, a), identify(t, b)
	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}
	if fingerprint.SameContent(fa, fb) {
		t.Fatal("digest failure must report not-same")
	}
}

func TestDigestIsCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.epub")
	testsupport.WriteFile(t, path, 200*1024, 4)
	fp := identify(t, path)

	first, err := fp.Digest()
	if err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, path, 200*1024, 8)
	second, err := fp.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("digest must be computed once per fingerprint")
	}
}

func TestDigestIgnoresMiddleOfLargeFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.epub")
	b := filepath.Join(dir, "b.epub")
	testsupport.WriteFile(t, a, 512*1024, 2)
	testsupport.WriteFile(t, b, 512*1024, 2)

	f, err := os.OpenFile(b, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteAt([]byte("changed"), 256*1024); err != nil {
		t.Fatal(err)
	}
	f.Close()

	da, _ := identify(t, a).Digest()
	db, _ := identify(t, b).Digest()
	if da != db {
		t.Fatal("digest samples only the head and tail")
	}
}

func TestStemSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1},
		{"abc", "ABC", 1},
		{"", "", 0},
		{"abcd", "ab", 0.5},
		{"aab", "abb", 2.0 / 3.0},
		{"異世界", "異世界転生", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got := fingerprint.StemSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("StemSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if rev := fingerprint.StemSimilarity(tt.b, tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("StemSimilarity not symmetric: %v vs %v", got, rev)
			}
		})
	}
}
