package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/demo-servers/internal/ctxutil"
)

// contextAttr pulls one attribute out of a request context.
type contextAttr func(ctx context.Context) (slog.Attr, bool)

var contextAttrs = []contextAttr{
	func(ctx context.Context) (slog.Attr, bool) {
		id, ok := ctxutil.GetRequestID(ctx)
		return slog.String("request_id", id), ok && id != ""
	},
	func(ctx context.Context) (slog.Attr, bool) {
		v := ctxutil.GetVariant(ctx)
		return slog.String("variant", v), v != ""
	},
}

// ContextHandler decorates records with the request_id and variant stored in
// the context by the HTTP middleware.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle never consults ctx.Done; a canceled request still gets its log lines.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, extract := range contextAttrs {
		if attr, ok := extract(ctx); ok {
			r.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
