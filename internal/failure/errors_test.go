package failure_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"shelver/internal/failure"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("disk full")
	err := failure.Wrap(failure.ErrCopy, "copy", "write", "target unavailable", base)
	if !errors.Is(err, failure.ErrCopy) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"copy", "write", "target unavailable", "disk full"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := failure.Wrap(failure.ErrSourceMissing, "", "", "", nil)
	if err.Error() != "source file missing: pipeline failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"ledger", failure.Wrap(failure.ErrLedgerWrite, "ledger", "update", "", errors.New("io")), true},
		{"config", fmt.Errorf("%w: paths.target_dir must be set", failure.ErrConfiguration), true},
		{"lock", failure.ErrLocked, true},
		{"copy", failure.Wrap(failure.ErrCopy, "copy", "", "", nil), false},
		{"missing", failure.Wrap(failure.ErrSourceMissing, "identify", "", "", nil), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := failure.IsFatal(tc.err); got != tc.fatal {
				t.Fatalf("IsFatal = %v, want %v", got, tc.fatal)
			}
		})
	}
}
