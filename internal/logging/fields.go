package logging

import (
	"context"
	"slices"
)

type fieldsKey struct{}

// ContextWith returns a copy of ctx carrying key-value pairs that every
// Logger in this package appends to records logged with that context.
func ContextWith(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	merged := append(slices.Clip(contextFields(ctx)), args...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func contextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	return fields
}

// withContextFields puts the context pairs ahead of the call-site ones.
func withContextFields(ctx context.Context, args []any) []any {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return args
	}
	return append(slices.Clip(fields), args...)
}
