package sqldriver_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuku/sessionpool"
	"github.com/yuku/sessionpool/sqldriver"
)

// recorder collects statements executed against fake connections.
type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) add(q string) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// prepareConn only supports the legacy Prepare path.
type prepareConn struct {
	rec    *recorder
	closed bool
}

func (c *prepareConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{rec: c.rec, query: query}, nil
}
func (c *prepareConn) Close() error              { c.closed = true; return nil }
func (c *prepareConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

type fakeStmt struct {
	rec   *recorder
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return 0 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.rec.add("prepared:" + s.query)
	return driver.RowsAffected(0), nil
}
func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("not supported")
}

// fullConn implements the optional interfaces the session looks for.
type fullConn struct {
	prepareConn
	pingErr error
	execErr error
	invalid bool
	skip    bool
}

func (c *fullConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.skip {
		return nil, driver.ErrSkip
	}
	c.rec.add("exec:" + query)
	if c.execErr != nil {
		return nil, c.execErr
	}
	return driver.RowsAffected(0), nil
}

func (c *fullConn) Ping(ctx context.Context) error {
	c.rec.add("ping")
	return c.pingErr
}

func (c *fullConn) IsValid() bool { return !c.invalid }

type fakeConnector struct {
	newConn func() driver.Conn
	err     error
}

func (c *fakeConnector) Connect(ctx context.Context) (driver.Conn, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.newConn(), nil
}

func (c *fakeConnector) Driver() driver.Driver { return nil }

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("uses ExecerContext and Pinger", func(t *testing.T) {
		rec := &recorder{}
		s := sqldriver.NewSession(&fullConn{prepareConn: prepareConn{rec: rec}})

		require.NoError(t, s.Rollback(ctx))
		require.NoError(t, s.Ping(ctx))
		require.Equal(t, []string{"exec:ROLLBACK", "ping"}, rec.all())
		require.False(t, s.IsClosed())
	})

	t.Run("falls back to prepared statements", func(t *testing.T) {
		rec := &recorder{}
		conn := &prepareConn{rec: rec}
		s := sqldriver.NewSession(conn)

		require.NoError(t, s.Rollback(ctx))
		require.NoError(t, s.Ping(ctx))
		require.Equal(t, []string{"prepared:ROLLBACK", "prepared:SELECT 1"}, rec.all())

		require.NoError(t, s.Close(ctx))
		require.True(t, conn.closed)
		require.Same(t, conn, s.Raw())
	})

	t.Run("ErrSkip falls back to prepared statements", func(t *testing.T) {
		rec := &recorder{}
		s := sqldriver.NewSession(&fullConn{prepareConn: prepareConn{rec: rec}, skip: true})

		require.NoError(t, s.Rollback(ctx))
		require.Equal(t, []string{"prepared:ROLLBACK"}, rec.all())
	})

	t.Run("reports errors and invalid connections", func(t *testing.T) {
		boom := errors.New("broken pipe")
		rec := &recorder{}
		s := sqldriver.NewSession(&fullConn{
			prepareConn: prepareConn{rec: rec},
			pingErr:     driver.ErrBadConn,
			execErr:     boom,
			invalid:     true,
		})

		require.ErrorIs(t, s.Rollback(ctx), boom)
		require.ErrorIs(t, s.Ping(ctx), driver.ErrBadConn)
		require.True(t, s.IsClosed())
	})
}

func TestDriver_Connect(t *testing.T) {
	ctx := context.Background()
	cfg := sessionpool.NewConnectionConfig("db.internal", 3306, "app", "u", "p")

	t.Run("connector error", func(t *testing.T) {
		boom := errors.New("bad dsn")
		d := sqldriver.New(func(sessionpool.ConnectionConfig) (driver.Connector, error) { return nil, boom })
		_, err := d.Connect(ctx, cfg)
		require.ErrorIs(t, err, boom)
	})

	t.Run("connect error", func(t *testing.T) {
		boom := errors.New("connection refused")
		d := sqldriver.New(func(sessionpool.ConnectionConfig) (driver.Connector, error) {
			return &fakeConnector{err: boom}, nil
		})
		_, err := d.Connect(ctx, cfg)
		require.ErrorIs(t, err, boom)
		require.Contains(t, err.Error(), "db.internal:3306")
	})

	t.Run("receives the config", func(t *testing.T) {
		var got sessionpool.ConnectionConfig
		d := sqldriver.New(func(c sessionpool.ConnectionConfig) (driver.Connector, error) {
			got = c
			return &fakeConnector{newConn: func() driver.Conn { return &prepareConn{rec: &recorder{}} }}, nil
		})
		s, err := d.Connect(ctx, cfg)
		require.NoError(t, err)
		require.IsType(t, &sqldriver.Session{}, s)
		require.Equal(t, cfg, got)
	})
}

func TestPool_SQLDriver(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	d := sqldriver.New(func(sessionpool.ConnectionConfig) (driver.Connector, error) {
		return &fakeConnector{newConn: func() driver.Conn {
			return &fullConn{prepareConn: prepareConn{rec: rec}}
		}}, nil
	})

	pool, err := sessionpool.NewPoolBuilder(sessionpool.NewConnectionConfig("db", 3306, "app", "u", "p"), d).
		MaxSize(1).
		Build()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	err = pool.Do(ctx, func(ctx context.Context, conn *sessionpool.Conn) error {
		conn.MarkDirty()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"exec:ROLLBACK", "ping"}, rec.all())

	// Raw driver connections cannot report a pending transaction, so a clean
	// release is rolled back too.
	err = pool.Do(ctx, func(ctx context.Context, conn *sessionpool.Conn) error { return nil })
	require.NoError(t, err)
	require.Equal(t, []string{"exec:ROLLBACK", "ping", "exec:ROLLBACK", "ping"}, rec.all())
}
