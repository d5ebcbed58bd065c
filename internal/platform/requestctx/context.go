package requestctx

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey  contextKey = "storefront/requestctx/logger"
	traceContextKey   contextKey = "storefront/requestctx/trace"
	surfaceContextKey contextKey = "storefront/requestctx/surface"
)

// Surface names the part of the API a request targets.
type Surface string

const (
	SurfaceSystem Surface = "system"
	SurfacePublic Surface = "public"
	SurfaceEditor Surface = "editor"
)

const (
	publicPathPrefix = "/api/v1/public"
	editorPathPrefix = "/api/v1/editor"
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance used across the package.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores the trace metadata on the context for downstream usage.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// Trace retrieves the trace metadata from context when available.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	if !ok {
		return TraceInfo{}, false
	}
	return info, true
}

// TraceID extracts the trace identifier from context when present.
func TraceID(ctx context.Context) string {
	info, ok := Trace(ctx)
	if !ok {
		return ""
	}
	return info.TraceID
}

// SurfaceForPath classifies a request path. Unknown paths belong to the system surface.
func SurfaceForPath(path string) Surface {
	switch {
	case hasPathPrefix(path, publicPathPrefix):
		return SurfacePublic
	case hasPathPrefix(path, editorPathPrefix):
		return SurfaceEditor
	default:
		return SurfaceSystem
	}
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// WithSurface records the API surface on the context.
func WithSurface(ctx context.Context, surface Surface) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, surfaceContextKey, surface)
}

// SurfaceFrom returns the surface stored on the context, defaulting to the system surface.
func SurfaceFrom(ctx context.Context) Surface {
	if ctx == nil {
		return SurfaceSystem
	}
	if surface, ok := ctx.Value(surfaceContextKey).(Surface); ok && surface != "" {
		return surface
	}
	return SurfaceSystem
}
