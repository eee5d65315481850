package sessionpool

import (
	"context"
	"log/slog"
	"time"
)

// destroyTimeout bounds closing a session that is being discarded.
const destroyTimeout = 5 * time.Second

// ConnectionManager creates and recycles connections for a Pool. It holds
// only its copy of the connection config, so one manager may serve any number
// of concurrent Create and Recycle calls.
type ConnectionManager struct {
	config ConnectionConfig
	driver Driver
	logger *slog.Logger
}

// NewConnectionManager returns a manager opening sessions to cfg through
// driver. A nil logger discards log output.
func NewConnectionManager(cfg ConnectionConfig, driver Driver, logger *slog.Logger) *ConnectionManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConnectionManager{
		config: cfg.clone(),
		driver: driver,
		logger: logger,
	}
}

// Config returns a copy of the manager's connection config.
func (m *ConnectionManager) Config() ConnectionConfig {
	return m.config.clone()
}

// Create opens a new session. The returned connection is never dirty.
// Errors are *CreateError.
func (m *ConnectionManager) Create(ctx context.Context) (*Conn, error) {
	session, err := m.driver.Connect(ctx, m.config.clone())
	if err == nil && session == nil {
		err = errNilSession
	}
	if err != nil {
		return nil, &CreateError{Err: err}
	}
	// A driver that ignored an expired context may still hand back a session.
	if ctxErr := ctx.Err(); ctxErr != nil {
		m.closeSession(session)
		return nil, &CreateError{Err: ctxErr}
	}

	conn := newConn(session)
	m.logger.Debug("connection created", "conn_id", conn.id, "backend", m.config)
	return conn, nil
}

// Recycle resets conn for its next use: a pending transaction is rolled back
// first, then the session is probed. A rollback is issued when conn is dirty,
// when the session reports an open transaction, or always for sessions that
// cannot report one. The dirty flag is cleared only when both steps succeed.
// Errors are *RecycleError and mean conn must not be reused.
func (m *ConnectionManager) Recycle(ctx context.Context, conn *Conn) error {
	if cr, ok := conn.session.(closedReporter); ok && cr.IsClosed() {
		return &RecycleError{Op: "closed"}
	}

	if needsRollback(conn) {
		if err := conn.session.Rollback(ctx); err != nil {
			return &RecycleError{Op: "rollback", Err: err}
		}
	}

	if err := conn.session.Ping(ctx); err != nil {
		return &RecycleError{Op: "ping", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &RecycleError{Op: "ping", Err: err}
	}

	conn.dirty = false
	conn.recycleCount++
	conn.lastReleased = time.Now()
	return nil
}

func needsRollback(conn *Conn) bool {
	if conn.dirty {
		return true
	}
	if tr, ok := conn.session.(txReporter); ok {
		return tr.InTransaction()
	}
	return true
}

// Destroy closes conn's session. Calling it more than once is harmless.
func (m *ConnectionManager) Destroy(conn *Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
	defer cancel()

	first, err := conn.close(ctx)
	if !first {
		return
	}
	if err != nil {
		m.logger.Debug("failed to close connection", "conn_id", conn.id, "error", err)
		return
	}
	m.logger.Debug("connection destroyed", "conn_id", conn.id)
}

func (m *ConnectionManager) closeSession(session Session) {
	ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
	defer cancel()
	_ = session.Close(ctx)
}
