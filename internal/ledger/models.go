package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a ledger record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

var allStatuses = []Status{StatusPending, StatusSuccess, StatusFailed, StatusSkipped}

// SourceKind identifies where an item was discovered.
type SourceKind string

const (
	SourceCatalog    SourceKind = "catalog"
	SourceFilesystem SourceKind = "filesystem"
)

var (
	// ErrNotFound is returned when a key has never been registered.
	ErrNotFound = errors.New("ledger record not found")
	// ErrNotPending is returned when a terminal write targets a record that
	// already left the pending state.
	ErrNotPending = errors.New("ledger record is not pending")
)

// Key is the identity of a ledger record.
type Key struct {
	Kind     SourceKind
	SourceID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.SourceID)
}

// Entry is what discovery registers for a new key.
type Entry struct {
	Key      Key
	FilePath string
	Title    string
}

// Record represents a ledger row.
type Record struct {
	Key          Key
	Seq          int64
	FilePath     string
	Title        string
	Status       Status
	TargetPath   string
	ErrorMessage string
	IsDuplicate  bool
	DuplicateOf  string
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}

// Outcome is a terminal write for a pending record.
type Outcome struct {
	Status      Status
	TargetPath  string
	Error       string
	DuplicateOf string
}

// Success builds the outcome of a copied (or simulated) item.
func Success(targetPath string) Outcome {
	return Outcome{Status: StatusSuccess, TargetPath: targetPath}
}

// Duplicate builds the outcome of an item whose content matches an item
// already placed this run.
func Duplicate(of string) Outcome {
	return Outcome{Status: StatusSuccess, DuplicateOf: of}
}

// Failed builds the outcome of an item that could not be placed.
func Failed(message string) Outcome {
	return Outcome{Status: StatusFailed, Error: message}
}

// Skipped builds the outcome of an item that is intentionally not migrated.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Error: reason}
}

func (o Outcome) validate() error {
	switch o.Status {
	case StatusSuccess, StatusFailed, StatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid terminal status %q", o.Status)
	}
}

// Stats aggregates ledger counts.
type Stats struct {
	Total      int
	Pending    int
	Success    int
	Failed     int
	Skipped    int
	Duplicates int
}

// Count returns the number of records in status.
func (s Stats) Count(status Status) int {
	switch status {
	case StatusPending:
		return s.Pending
	case StatusSuccess:
		return s.Success
	case StatusFailed:
		return s.Failed
	case StatusSkipped:
		return s.Skipped
	default:
		return 0
	}
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}
