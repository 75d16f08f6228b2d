package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

var Log *zap.Logger

func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// ContextWithRequestID stores a request id on the context for WithRequestID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// WithRequestID returns a logger annotated with the request id carried in ctx.
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
