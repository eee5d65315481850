package sessionpool

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is a pooled session together with the bookkeeping the pool needs to
// reset it between uses.
//
// A Conn is owned by exactly one of: the idle set, an Object, or the manager
// while it is being recycled. Its methods are not safe for concurrent use.
type Conn struct {
	id           uuid.UUID
	session      Session
	createdAt    time.Time
	lastReleased time.Time
	recycleCount int
	dirty        bool

	closeOnce sync.Once
	closeErr  error
}

func newConn(session Session) *Conn {
	return &Conn{
		id:        uuid.New(),
		session:   session,
		createdAt: time.Now(),
	}
}

// ID uniquely identifies the connection for its whole lifetime.
func (c *Conn) ID() uuid.UUID { return c.id }

// Session returns the underlying driver session.
func (c *Conn) Session() Session { return c.session }

// CreatedAt returns when the session was opened.
func (c *Conn) CreatedAt() time.Time { return c.createdAt }

// LastReleased returns when the connection last passed recycling, or the zero
// time if it never has.
func (c *Conn) LastReleased() time.Time { return c.lastReleased }

// RecycleCount returns how many times the connection has been recycled.
func (c *Conn) RecycleCount() int { return c.recycleCount }

// MarkDirty records that a transaction may be pending on the session. The
// next recycle rolls it back before probing the session.
func (c *Conn) MarkDirty() { c.dirty = true }

// Dirty reports whether a rollback is due at the next recycle.
func (c *Conn) Dirty() bool { return c.dirty }

// Close closes the session. Only the first call reaches the driver.
func (c *Conn) Close(ctx context.Context) error {
	_, err := c.close(ctx)
	return err
}

// close reports whether this call was the one that closed the session.
func (c *Conn) close(ctx context.Context) (first bool, err error) {
	c.closeOnce.Do(func() {
		first = true
		c.closeErr = c.session.Close(ctx)
	})
	return first, c.closeErr
}
