package utils

import (
	"context"
)

type contextKey string

const (
	// RequesterRefKey carries the opaque account reference of the caller.
	// Authentication happens upstream; this service only records the ref.
	RequesterRefKey contextKey = "requester_ref"
)

func GetRequesterRefFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(RequesterRefKey)
	if val == nil {
		return "", false
	}

	ref, ok := val.(string)
	if !ok || ref == "" {
		return "", false
	}

	return ref, true
}

func SetRequesterRefContext(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, RequesterRefKey, ref)
}
