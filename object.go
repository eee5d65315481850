package sessionpool

import (
	"sync"

	"github.com/jackc/puddle/v2"
)

// Object is a checked-out connection. Call Release exactly when done with it,
// typically with defer; the connection is recycled and returned to the pool
// whatever the outcome of the caller's work.
type Object struct {
	pool *Pool
	res  *puddle.Resource[*Conn]
	conn *Conn
	once sync.Once
}

// Conn returns the checked-out connection. It must not be used after Release.
func (o *Object) Conn() *Conn {
	return o.conn
}

// Session is shorthand for o.Conn().Session().
func (o *Object) Session() Session {
	return o.conn.session
}

// Release returns the connection to the pool. It rolls back a pending
// transaction if the connection is dirty, probes the session, and keeps the
// connection only if both succeed. Only the first call has any effect.
func (o *Object) Release() {
	o.once.Do(func() {
		o.pool.release(o)
	})
}

// Detach takes the connection out of the pool for good. Its slot is freed
// immediately and the caller becomes responsible for closing the session.
// Detach after Release, or a second Detach, returns nil.
func (o *Object) Detach() *Conn {
	var conn *Conn
	o.once.Do(func() {
		o.pool.detach(o)
		conn = o.conn
	})
	return conn
}
