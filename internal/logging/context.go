package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one orchestrator run.
	FieldRunID = "run_id"
	// FieldSourceKind is the ledger source kind (catalog or filesystem).
	FieldSourceKind = "source_kind"
	// FieldSourceID is the per-source item identifier.
	FieldSourceID = "source_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	sourceKindKey contextKey = "source_kind"
	sourceIDKey   contextKey = "source_id"
)

// WithRunID annotates ctx with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithItem annotates ctx with the ledger key of the item being processed.
func WithItem(ctx context.Context, kind, id string) context.Context {
	ctx = context.WithValue(ctx, sourceKindKey, kind)
	return context.WithValue(ctx, sourceIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if kind, ok := ctx.Value(sourceKindKey).(string); ok && kind != "" {
		fields = append(fields, slog.String(FieldSourceKind, kind))
	}
	if id, ok := ctx.Value(sourceIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldSourceID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
