package sessionpool

import "context"

// Driver opens sessions to the backend.
//
// Implementations must honor ctx cancellation: the pool bounds creation by
// cancelling ctx when the create timeout elapses.
type Driver interface {
	Connect(ctx context.Context, cfg ConnectionConfig) (Session, error)
}

// Session is a live session to the backend. The pool only needs these three
// operations; queries are issued through the concrete driver's session type.
type Session interface {
	// Rollback abandons any transaction pending on the session.
	Rollback(ctx context.Context) error

	// Ping is a lightweight liveness probe over the existing session.
	Ping(ctx context.Context) error

	// Close ends the session.
	Close(ctx context.Context) error
}

// closedReporter is implemented by sessions that can tell without I/O that
// they are no longer usable.
type closedReporter interface {
	IsClosed() bool
}

// txReporter is implemented by sessions that know whether a transaction is
// pending. Sessions without it are rolled back on every recycle.
type txReporter interface {
	InTransaction() bool
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, cfg ConnectionConfig) (Session, error)

// Connect calls f(ctx, cfg).
func (f DriverFunc) Connect(ctx context.Context, cfg ConnectionConfig) (Session, error) {
	return f(ctx, cfg)
}
