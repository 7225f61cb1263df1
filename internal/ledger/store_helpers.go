package ledger

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "seq, source_kind, source_id, file_path, title, status, target_path, error_message, is_duplicate, duplicate_of, processed_at, created_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		seq          int64
		kind         string
		sourceID     string
		filePath     sql.NullString
		title        sql.NullString
		status       string
		targetPath   sql.NullString
		errorMessage sql.NullString
		isDuplicate  sql.NullInt64
		duplicateOf  sql.NullString
		processedRaw sql.NullString
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(
		&seq,
		&kind,
		&sourceID,
		&filePath,
		&title,
		&status,
		&targetPath,
		&errorMessage,
		&isDuplicate,
		&duplicateOf,
		&processedRaw,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		Key:          Key{Kind: SourceKind(kind), SourceID: sourceID},
		Seq:          seq,
		FilePath:     filePath.String,
		Title:        title.String,
		Status:       Status(status),
		TargetPath:   targetPath.String,
		ErrorMessage: errorMessage.String,
		IsDuplicate:  isDuplicate.Valid && isDuplicate.Int64 != 0,
		DuplicateOf:  duplicateOf.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if processedRaw.Valid {
		if processed, err := parseTimeString(processedRaw.String); err == nil {
			record.ProcessedAt = &processed
		}
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
