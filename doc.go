// Package sessionpool pools expensive, stateful sessions to a remote database service.
//
// The pool hands connections out to concurrent callers, resets and verifies
// every connection when it is returned, and bounds the time spent waiting for
// a slot, opening a session, and checking a returned session. The generic
// bookkeeping (idle set, size accounting, construction and destruction) is
// done by github.com/jackc/puddle/v2; this package supplies the lifecycle
// policy on top of it through ConnectionManager.
//
// # Lifecycle
//
//   - A connection is created by ConnectionManager.Create when a caller finds
//     no idle connection and the pool has headroom. Creation is bounded by the
//     create timeout; a failed creation gives its slot back.
//   - A connection is checked out as an *Object. The caller must call Release,
//     or use Pool.Do which always releases.
//   - On release the connection is recycled exactly once: a pending
//     transaction is rolled back, then the session is pinged. Sessions that
//     can report their transaction state skip the rollback when idle and not
//     marked with Conn.MarkDirty; all others are rolled back every time.
//     Recycling is bounded by the recycle timeout.
//   - A connection that fails to recycle is destroyed and its slot freed, so
//     callers never receive a connection whose health is unknown.
//
// Callers that find the pool exhausted wait in FIFO order, for at most the
// wait timeout.
//
// # Basic Usage
//
//	cfg := sessionpool.NewConnectionConfig("db.internal", 5432, "orders", "app", secret).
//		WithTLS()
//
//	pool, err := sessionpool.NewPoolBuilder(cfg, pgxdriver.New()).
//		MaxSize(16).
//		WaitTimeout(10 * time.Second).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	err = pool.Do(ctx, func(ctx context.Context, conn *sessionpool.Conn) error {
//		pg := conn.Session().(*pgxdriver.Session).Conn()
//		_, err := pg.Exec(ctx, "UPDATE orders SET state = 'shipped' WHERE id = $1", id)
//		return err
//	})
//
// # Drivers
//
// Backends plug in through the Driver and Session interfaces. The pgxdriver
// package opens PostgreSQL sessions with pgx; the sqldriver package adapts any
// database/sql/driver.Connector and ships MySQL and lib/pq constructors.
package sessionpool
