package pgxdriver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/yuku/sessionpool"
)

// Startup parameters carrying the server pool request.
const (
	ParamServerPoolName   = "server_pool.name"
	ParamServerPoolPurity = "server_pool.purity"
)

var _ sessionpool.Driver = (*Driver)(nil)
var _ sessionpool.Session = (*Session)(nil)

// Driver opens pgx sessions.
type Driver struct {
	// Configure, if set, may adjust the pgx config of every new session.
	Configure func(*pgx.ConnConfig) error
}

// New returns a Driver with no extra configuration.
func New() *Driver {
	return &Driver{}
}

// Connect implements sessionpool.Driver.
func (d *Driver) Connect(ctx context.Context, cfg sessionpool.ConnectionConfig) (sessionpool.Session, error) {
	connConfig, err := ConnConfig(cfg)
	if err != nil {
		return nil, err
	}
	if d.Configure != nil {
		if err := d.Configure(connConfig); err != nil {
			return nil, fmt.Errorf("failed to configure connection: %w", err)
		}
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr(), err)
	}
	return &Session{conn: conn}, nil
}

// ConnConfig translates cfg into a pgx config.
func ConnConfig(cfg sessionpool.ConnectionConfig) (*pgx.ConnConfig, error) {
	sslmode := "disable"
	if cfg.Security == sessionpool.SecurityTLS {
		sslmode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     cfg.Addr(),
		Path:     "/" + cfg.Service,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}

	connConfig, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config for %s: %w", cfg.Addr(), err)
	}

	if cfg.ServerPool != nil {
		if connConfig.RuntimeParams == nil {
			connConfig.RuntimeParams = make(map[string]string)
		}
		connConfig.RuntimeParams[ParamServerPoolName] = cfg.ServerPool.Name
		connConfig.RuntimeParams[ParamServerPoolPurity] = string(cfg.ServerPool.Purity)
	}

	return connConfig, nil
}

// Session is a pgx connection managed by a sessionpool.Pool.
type Session struct {
	conn *pgx.Conn
}

// Conn returns the pgx connection for running queries.
func (s *Session) Conn() *pgx.Conn {
	return s.conn
}

// Rollback implements sessionpool.Session.
func (s *Session) Rollback(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return nil
}

// Ping implements sessionpool.Session.
func (s *Session) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close implements sessionpool.Session.
func (s *Session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// InTransaction reports whether the server considers a transaction open or
// failed on the session.
func (s *Session) InTransaction() bool {
	return s.conn.PgConn().TxStatus() != 'I'
}

// IsClosed reports whether the underlying connection is closed.
func (s *Session) IsClosed() bool {
	return s.conn.IsClosed()
}
