package services

import "context"

type contextKey string

const (
	operationIDKey contextKey = "operation_id"
	jobIDKey       contextKey = "job_id"
	taskKindKey    contextKey = "task_kind"
	runIDKey       contextKey = "run_id"
)

// WithOperationID annotates context with the batch or task identifier.
func WithOperationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationIDFromContext returns the batch or task identifier if present.
func OperationIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, operationIDKey)
}

// WithJobID annotates context with the per-item job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext returns the per-item job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, jobIDKey)
}

// WithTaskKind annotates context with the operation kind.
func WithTaskKind(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, taskKindKey, kind)
}

// TaskKindFromContext returns the operation kind if present.
func TaskKindFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, taskKindKey)
}

// WithRunID annotates context with a per-dispatch correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
