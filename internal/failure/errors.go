package failure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExtraction    = errors.New("extraction failure")
	ErrSourceMissing = errors.New("source file missing")
	ErrCopy          = errors.New("copy failure")
	ErrLedgerWrite   = errors.New("ledger write failure")
	ErrConfiguration = errors.New("configuration error")
	ErrLocked        = errors.New("another run holds the ledger lock")
	ErrUnsupported   = errors.New("unsupported format")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCopy
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must stop the batch rather than fail one item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLedgerWrite) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrLocked)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
