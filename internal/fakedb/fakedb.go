// Package fakedb is an in-memory sessionpool.Driver for tests. It records every
// lifecycle call in order and lets tests script failures per session.
package fakedb

import (
	"context"
	"errors"
	"sync"

	"github.com/yuku/sessionpool"
)

// ErrKilled is returned by operations on a session killed with Kill.
var ErrKilled = errors.New("fakedb: session killed")

// EventKind names a recorded lifecycle call.
type EventKind string

const (
	EventConnect  EventKind = "connect"
	EventBegin    EventKind = "begin"
	EventRollback EventKind = "rollback"
	EventPing     EventKind = "ping"
	EventClose    EventKind = "close"

	// EventCheckout is never recorded by the driver. Tests note it with Note
	// when a connection reaches a caller.
	EventCheckout EventKind = "checkout"
)

// Event is one recorded call against a session.
type Event struct {
	Kind    EventKind
	Session int
}

// Driver hands out numbered sessions starting at 1.
type Driver struct {
	// ConnectFunc, when set, runs before every connect attempt with the
	// attempt number. A non-nil error fails the attempt.
	ConnectFunc func(ctx context.Context, attempt int) error

	mu       sync.Mutex
	attempts int
	events   []Event
	configs  []sessionpool.ConnectionConfig
	sessions map[int]*Session
}

// New returns an empty driver.
func New() *Driver {
	return &Driver{sessions: make(map[int]*Session)}
}

// Connect implements sessionpool.Driver.
func (d *Driver) Connect(ctx context.Context, cfg sessionpool.ConnectionConfig) (sessionpool.Session, error) {
	d.mu.Lock()
	d.attempts++
	attempt := d.attempts
	d.configs = append(d.configs, cfg)
	hook := d.ConnectFunc
	d.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, attempt); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{driver: d, id: attempt}
	d.mu.Lock()
	d.sessions[attempt] = s
	d.events = append(d.events, Event{Kind: EventConnect, Session: attempt})
	d.mu.Unlock()
	return s, nil
}

// Note records an event on behalf of a test.
func (d *Driver) Note(kind EventKind, session int) {
	d.record(kind, session)
}

func (d *Driver) record(kind EventKind, session int) {
	d.mu.Lock()
	d.events = append(d.events, Event{Kind: kind, Session: session})
	d.mu.Unlock()
}

// Events returns every event recorded so far, in order.
func (d *Driver) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// EventsFor returns the kinds of events recorded for one session, in order.
func (d *Driver) EventsFor(session int) []EventKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	var kinds []EventKind
	for _, e := range d.events {
		if e.Session == session {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// Count returns how many events of kind were recorded.
func (d *Driver) Count(kind EventKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Attempts returns the number of connect attempts, including failed ones.
func (d *Driver) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

// Configs returns the config passed to every connect attempt.
func (d *Driver) Configs() []sessionpool.ConnectionConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sessionpool.ConnectionConfig(nil), d.configs...)
}

// Session returns the session opened by the given attempt, or nil.
func (d *Driver) Session(id int) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[id]
}

// Session is a scripted fake session.
type Session struct {
	driver *Driver
	id     int

	mu          sync.Mutex
	inTx        bool
	closed      bool
	killed      bool
	blockPing   bool
	pingErr     error
	rollbackErr error
}

// ID returns the connect attempt that produced s.
func (s *Session) ID() int { return s.id }

// Begin opens a fake transaction.
func (s *Session) Begin() {
	s.mu.Lock()
	s.inTx = true
	s.mu.Unlock()
	s.driver.record(EventBegin, s.id)
}

// InTx reports whether a transaction is open.
func (s *Session) InTx() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx
}

// InTransaction reports whether a transaction is open. It lets the pool skip
// the rollback for clean sessions.
func (s *Session) InTransaction() bool {
	return s.InTx()
}

// FailPing makes every later Ping return err.
func (s *Session) FailPing(err error) {
	s.mu.Lock()
	s.pingErr = err
	s.mu.Unlock()
}

// FailRollback makes every later Rollback return err.
func (s *Session) FailRollback(err error) {
	s.mu.Lock()
	s.rollbackErr = err
	s.mu.Unlock()
}

// BlockPing makes every later Ping block until its context ends.
func (s *Session) BlockPing() {
	s.mu.Lock()
	s.blockPing = true
	s.mu.Unlock()
}

// Kill simulates the backend dropping the session: IsClosed reports true.
func (s *Session) Kill() {
	s.mu.Lock()
	s.killed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Rollback implements sessionpool.Session.
func (s *Session) Rollback(ctx context.Context) error {
	s.driver.record(EventRollback, s.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.killed {
		return ErrKilled
	}
	if s.rollbackErr != nil {
		return s.rollbackErr
	}
	s.inTx = false
	return ctx.Err()
}

// Ping implements sessionpool.Session.
func (s *Session) Ping(ctx context.Context) error {
	s.driver.record(EventPing, s.id)
	s.mu.Lock()
	block, killed, err := s.blockPing, s.killed, s.pingErr
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if killed {
		return ErrKilled
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Close implements sessionpool.Session.
func (s *Session) Close(ctx context.Context) error {
	s.driver.record(EventClose, s.id)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// IsClosed reports whether the session was closed or killed.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.killed
}
