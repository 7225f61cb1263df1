package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shelver/internal/failure"
)

// SampleSize is the number of bytes hashed from each end of a file.
const SampleSize = 64 * 1024

// StemThreshold is the name similarity above which different-size files of
// the same format are considered the same book.
const StemThreshold = 0.9

// Fingerprint identifies a file for duplicate detection.
type Fingerprint struct {
	Path        string
	Size        int64
	Ext         string
	DisplayName string

	once   sync.Once
	digest string
	err    error
}

// Identify stats path and returns its fingerprint. A missing file is
// reported with failure.ErrSourceMissing.
func Identify(path string) (*Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, failure.Wrap(failure.ErrSourceMissing, "fingerprint", "stat", path, err)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &Fingerprint{
		Path:        path,
		Size:        info.Size(),
		Ext:         strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")),
		DisplayName: filepath.Base(path),
	}, nil
}

// Digest returns the hex SHA-256 of the first SampleSize bytes and, for files
// larger than twice that, the last SampleSize bytes. The result (or error)
// is cached.
func (f *Fingerprint) Digest() (string, error) {
	f.once.Do(func() {
		f.digest, f.err = sampleDigest(f.Path, f.Size)
	})
	return f.digest, f.err
}

// Stem returns the lower-cased file name without extension.
func (f *Fingerprint) Stem() string {
	return strings.ToLower(strings.TrimSuffix(f.DisplayName, filepath.Ext(f.DisplayName)))
}

func sampleDigest(path string, size int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, file, SampleSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("hash head of %s: %w", path, err)
	}
	if size > 2*SampleSize {
		if _, err := file.Seek(-SampleSize, io.SeekEnd); err != nil {
			return "", fmt.Errorf("seek tail of %s: %w", path, err)
		}
		if _, err := io.Copy(h, file); err != nil {
			return "", fmt.Errorf("hash tail of %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SameContent reports whether a and b hold the same book. Formats must
// match. Equal sizes are confirmed by digest; a digest error answers false.
// Different sizes compare file names with StemSimilarity.
func SameContent(a, b *Fingerprint) bool {
	if a == nil || b == nil || a.Ext != b.Ext {
		return false
	}
	if a.Size == b.Size {
		da, err := a.Digest()
		if err != nil {
			return false
		}
		db, err := b.Digest()
		if err != nil {
			return false
		}
		return da == db
	}
	return StemSimilarity(a.Stem(), b.Stem()) > StemThreshold
}

// StemSimilarity returns the share of characters the two names have in
// common, counted with multiplicity, over the length of the longer name. It
// is symmetric and in [0, 1].
func StemSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	counts := make(map[rune]int, len(ra))
	for _, r := range ra {
		counts[r]++
	}
	common := 0
	for _, r := range rb {
		if counts[r] > 0 {
			counts[r]--
			common++
		}
	}
	return float64(common) / float64(longest)
}
