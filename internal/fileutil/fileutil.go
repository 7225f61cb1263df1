// Package fileutil places book files into the target tree.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shelver/internal/fingerprint"
)

// maxCollisionSuffix bounds the " (n)" suffixes tried for a taken name.
const maxCollisionSuffix = 99

// CopyFile streams src to dst through a temporary sibling file and renames
// it into place, so dst never holds a partial copy. The source modification
// time is carried over.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Place copies src to dst, creating parent directories. When dst already
// holds the same content as src (equal size and fingerprint digest) it is
// left alone and copied is false. Otherwise the first free or matching
// "name (n).ext" sibling is used. The returned path is where the file now
// lives.
func Place(src, dst string) (final string, copied bool, err error) {
	source, err := fingerprint.Identify(src)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", false, fmt.Errorf("create target directory: %w", err)
	}

	candidate := dst
	for n := 2; ; n++ {
		existing, statErr := os.Stat(candidate)
		if os.IsNotExist(statErr) {
			break
		}
		if statErr != nil {
			return "", false, statErr
		}
		if existing.Mode().IsRegular() && existing.Size() == source.Size {
			same, err := sameDigest(source, candidate)
			if err != nil {
				return "", false, err
			}
			if same {
				return candidate, false, nil
			}
		}
		if n > maxCollisionSuffix {
			return "", false, fmt.Errorf("no free name for %s", dst)
		}
		candidate = WithSuffix(dst, n)
	}

	if err := CopyFile(src, candidate); err != nil {
		return "", false, err
	}
	return candidate, true, nil
}

func sameDigest(source *fingerprint.Fingerprint, path string) (bool, error) {
	want, err := source.Digest()
	if err != nil {
		return false, fmt.Errorf("digest %s: %w", source.Path, err)
	}
	existing, err := fingerprint.Identify(path)
	if err != nil {
		return false, err
	}
	got, err := existing.Digest()
	if err != nil {
		return false, fmt.Errorf("digest %s: %w", path, err)
	}
	return got == want, nil
}

// WithSuffix returns path with " (n)" inserted before the extension.
func WithSuffix(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(path, ext), n, ext)
}
