package requestlog

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

// fields é preenchido pelos middlewares internos e lido pelo log depois do handler.
type fields struct {
	mu    sync.Mutex
	rid   string
	attrs []slog.Attr
}

func withFields(ctx context.Context, f *fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

func fromContext(ctx context.Context) *fields {
	f, _ := ctx.Value(ctxKey{}).(*fields)
	return f
}

// Annotate adiciona um atributo ao registro de acesso da requisição.
// Fora de uma requisição com Middleware é no-op.
func Annotate(ctx context.Context, key string, value any) {
	f := fromContext(ctx)
	if f == nil {
		return
	}
	f.mu.Lock()
	f.attrs = append(f.attrs, slog.Any(key, value))
	f.mu.Unlock()
}

// RequestID devolve o id da requisição corrente ("" fora do Middleware).
func RequestID(ctx context.Context) string {
	f := fromContext(ctx)
	if f == nil {
		return ""
	}
	return f.rid
}

func (f *fields) snapshot() []slog.Attr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]slog.Attr(nil), f.attrs...)
}
