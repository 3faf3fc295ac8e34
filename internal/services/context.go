package services

import "context"

type contextKey int

const (
	submissionIDKey contextKey = iota
	stageKey
	requestIDKey
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithSubmissionID annotates ctx with the staged submission id. Blank ids
// leave ctx unchanged.
func WithSubmissionID(ctx context.Context, id string) context.Context {
	return withString(ctx, submissionIDKey, id)
}

func SubmissionIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, submissionIDKey)
}

// WithStage annotates ctx with the running pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithRequestID annotates ctx with the correlation id of one ingest run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}
