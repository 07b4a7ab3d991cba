package services

import "context"

type ctxKey int

const (
	itemIDKey ctxKey = iota
	stageKey
	requestIDKey
)

// WithItemID tags ctx with the queue item being processed.
func WithItemID(ctx context.Context, id int64) context.Context {
	if id <= 0 {
		return ctx
	}
	return context.WithValue(ctx, itemIDKey, id)
}

// WithStage tags ctx with the running stage. A blank name leaves ctx unchanged.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// WithRequestID tags ctx with the correlation id of one pipeline run or API
// request.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func ItemIDFromContext(ctx context.Context) (int64, bool) {
	return lookup[int64](ctx, itemIDKey)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, stageKey)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, requestIDKey)
}

func lookup[T comparable](ctx context.Context, key ctxKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	if !ok || v == zero {
		return zero, false
	}
	return v, true
}
