package logger

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	connKey
)

type connInfo struct {
	id     string
	remote string
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithConn tags ctx with the connection ID and the client address.
func WithConn(ctx context.Context, id, remote string) context.Context {
	return context.WithValue(ctx, connKey, connInfo{id: id, remote: remote})
}

// ConnFromContext returns what WithConn stored.
func ConnFromContext(ctx context.Context) (id, remote string, ok bool) {
	ci, ok := ctx.Value(connKey).(connInfo)
	return ci.id, ci.remote, ok
}

// L returns the context logger with the connection attributes attached.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	id, remote, ok := ConnFromContext(ctx)
	if !ok {
		return l
	}
	if id != "" {
		l = l.With("conn", id)
	}
	if remote != "" {
		l = l.With("remote", remote)
	}
	return l.WithContext(ctx)
}
