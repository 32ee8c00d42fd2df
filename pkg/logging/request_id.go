package logging

import (
	"context"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	// Longer client-supplied ids are replaced, they end up in every log line
	maxRequestIDLen = 128
)

func GetRequestIDFromCtx(ctx context.Context) string {
	if v := ctx.Value(reqKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func MakeContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" || len(requestID) > maxRequestIDLen {
		return MakeContextWithNewRequestID(ctx)
	}
	return context.WithValue(ctx, reqKey, requestID)
}

func MakeContextWithNewRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, reqKey, uuid.New().String())
}
