// Package sqldriver adapts database/sql drivers to sessionpool.
//
// Each pooled session is one raw driver.Conn obtained from a
// driver.Connector, so the pool, not database/sql, decides when sessions are
// opened, reset and closed. MySQL and PostgreSQL (lib/pq) connectors are
// provided; any other driver plugs in through New.
package sqldriver

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/yuku/sessionpool"
)

var _ sessionpool.Driver = (*Driver)(nil)
var _ sessionpool.Session = (*Session)(nil)

// ConnectorFunc builds the connector for a connection config.
type ConnectorFunc func(cfg sessionpool.ConnectionConfig) (driver.Connector, error)

// Driver opens sessions through a database/sql/driver.Connector.
type Driver struct {
	connector ConnectorFunc
}

// New returns a Driver using fn to build connectors.
func New(fn ConnectorFunc) *Driver {
	return &Driver{connector: fn}
}

// Connect implements sessionpool.Driver.
func (d *Driver) Connect(ctx context.Context, cfg sessionpool.ConnectionConfig) (sessionpool.Session, error) {
	connector, err := d.connector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connector: %w", err)
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr(), err)
	}
	return &Session{conn: conn}, nil
}

// Session wraps one raw driver connection. It cannot tell whether a
// transaction is pending, so the pool rolls it back on every release.
type Session struct {
	conn driver.Conn
}

// NewSession wraps an already open driver connection.
func NewSession(conn driver.Conn) *Session {
	return &Session{conn: conn}
}

// Raw returns the underlying driver connection.
func (s *Session) Raw() driver.Conn {
	return s.conn
}

// Rollback implements sessionpool.Session.
func (s *Session) Rollback(ctx context.Context) error {
	if err := s.exec(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return nil
}

// Ping implements sessionpool.Session. Drivers without driver.Pinger are
// probed with SELECT 1.
func (s *Session) Ping(ctx context.Context) error {
	if p, ok := s.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return s.exec(ctx, "SELECT 1")
}

// Close implements sessionpool.Session.
func (s *Session) Close(ctx context.Context) error {
	return s.conn.Close()
}

// IsClosed reports whether the driver marked the connection invalid.
func (s *Session) IsClosed() bool {
	if v, ok := s.conn.(driver.Validator); ok {
		return !v.IsValid()
	}
	return false
}

func (s *Session) exec(ctx context.Context, query string) error {
	if e, ok := s.conn.(driver.ExecerContext); ok {
		_, err := e.ExecContext(ctx, query, nil)
		if !errors.Is(err, driver.ErrSkip) {
			return err
		}
	}

	var (
		stmt driver.Stmt
		err  error
	)
	if p, ok := s.conn.(driver.ConnPrepareContext); ok {
		stmt, err = p.PrepareContext(ctx, query)
	} else {
		stmt, err = s.conn.Prepare(query)
	}
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	if se, ok := stmt.(driver.StmtExecContext); ok {
		_, err = se.ExecContext(ctx, nil)
	} else {
		_, err = stmt.Exec(nil)
	}
	return err
}
