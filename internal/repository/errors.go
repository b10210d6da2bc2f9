package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lead, quote, product, user, or session
// lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Default query timeouts. Every repository method bounds its own execution
// so a stuck pool connection cannot hang a request.
const (
	// DefaultQueryTimeout bounds point lookups (SELECT by id or token).
	DefaultQueryTimeout = 5 * time.Second

	// DefaultListQueryTimeout bounds paginated list queries.
	DefaultListQueryTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds INSERT, UPDATE, and DELETE statements.
	DefaultWriteTimeout = 10 * time.Second
)

// WithQueryTimeout returns a context with the default query timeout.
func WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultQueryTimeout)
}

// WithListQueryTimeout returns a context with the default list query timeout.
func WithListQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultListQueryTimeout)
}

// WithWriteTimeout returns a context with the default write timeout.
func WithWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultWriteTimeout)
}

// withTimeout adds a timeout to a context. A parent deadline that is already
// sooner wins; the returned cancel is then a no-op.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < timeout {
			return ctx, func() {}
		}
	}
	return context.WithTimeout(ctx, timeout)
}
