package sessionpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
	"golang.org/x/sync/semaphore"
)

// Pool is a bounded pool of connections.
//
// Idle connections, size accounting and construction are handled by a puddle
// pool. Admission in front of it goes through a FIFO semaphore sized to the
// pool's capacity, so callers that had to wait are served in the order they
// started waiting, and a released connection reaches the longest waiter
// before any new session is opened.
type Pool struct {
	manager   *ConnectionManager
	resources *puddle.Pool[*Conn]
	admission *semaphore.Weighted
	maxSize   int
	timeouts  Timeouts
	logger    *slog.Logger

	waiting   atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once

	created         atomic.Int64
	createFailures  atomic.Int64
	recycled        atomic.Int64
	recycleFailures atomic.Int64
	waitTimeouts    atomic.Int64
}

func newPool(manager *ConnectionManager, tuning TuningParameters, logger *slog.Logger) (*Pool, error) {
	p := &Pool{
		manager:   manager,
		admission: semaphore.NewWeighted(int64(tuning.MaxSize)),
		maxSize:   tuning.MaxSize,
		timeouts:  tuning.Timeouts,
		logger:    logger,
	}

	resources, err := puddle.NewPool(&puddle.Config[*Conn]{
		Constructor: p.construct,
		Destructor:  manager.Destroy,
		MaxSize:     int32(tuning.MaxSize),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	p.resources = resources

	return p, nil
}

// construct is the puddle constructor. puddle runs it with a context that
// carries the caller's values but not its cancellation, so the create timeout
// is the only bound on a creation in flight.
func (p *Pool) construct(ctx context.Context) (*Conn, error) {
	ctx, cancel := withTimeout(ctx, p.timeouts.Create)
	defer cancel()

	conn, err := p.manager.Create(ctx)
	if err != nil {
		p.createFailures.Add(1)
		p.logger.Warn("failed to create connection", "error", err)
		return nil, err
	}
	p.created.Add(1)
	return conn, nil
}

// Get checks out a connection, opening a new one when no idle connection is
// available and the pool has headroom.
//
// Errors: ErrWaitTimedOut when the pool stayed exhausted for the whole wait
// timeout, *CreateError when a new session could not be opened, ErrPoolClosed
// after Close, or ctx's error when ctx ends first.
func (p *Pool) Get(ctx context.Context) (*Object, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	if err := p.admit(ctx); err != nil {
		return nil, err
	}

	res, err := p.resources.Acquire(ctx)
	if err != nil {
		p.admission.Release(1)
		if errors.Is(err, puddle.ErrClosedPool) {
			return nil, ErrPoolClosed
		}
		return nil, err
	}

	return &Object{pool: p, res: res, conn: res.Value()}, nil
}

// admit takes one admission permit, waiting for at most the wait timeout.
func (p *Pool) admit(ctx context.Context) error {
	if p.admission.TryAcquire(1) {
		return nil
	}

	if p.timeouts.Wait == 0 {
		p.waitTimeouts.Add(1)
		return ErrWaitTimedOut
	}

	waitCtx, cancel := withTimeout(ctx, p.timeouts.Wait)
	defer cancel()

	p.waiting.Add(1)
	err := p.admission.Acquire(waitCtx, 1)
	p.waiting.Add(-1)
	if err == nil {
		return nil
	}

	// The caller's own cancellation wins over the wait timeout.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.waitTimeouts.Add(1)
	return ErrWaitTimedOut
}

// Do runs fn with a checked-out connection and always releases it, whether
// fn returns normally, fails, or panics. When fn fails or panics the
// connection is marked dirty so recycling rolls back whatever fn left open.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context, conn *Conn) error) (err error) {
	obj, err := p.Get(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			obj.conn.MarkDirty()
			obj.Release()
			panic(r)
		}
		if err != nil {
			obj.conn.MarkDirty()
		}
		obj.Release()
	}()

	return fn(ctx, obj.conn)
}

// release recycles a returned connection and hands its slot back. The
// admission permit is released last, after the connection is idle again or
// its session is closed and its puddle slot freed.
func (p *Pool) release(o *Object) {
	defer p.admission.Release(1)

	if p.closed.Load() {
		p.discard(o)
		return
	}

	ctx, cancel := withTimeout(context.Background(), p.timeouts.Recycle)
	err := p.manager.Recycle(ctx, o.conn)
	cancel()

	if err != nil {
		p.recycleFailures.Add(1)
		p.logger.Warn("discarding connection that failed to recycle", "conn_id", o.conn.ID(), "error", err)
		p.discard(o)
		return
	}

	p.recycled.Add(1)
	o.res.Release()
}

// discard closes a checked-out connection and frees its slot before
// returning. puddle's Destroy does both in a background goroutine, so the
// resource is hijacked and closed here instead.
func (p *Pool) discard(o *Object) {
	p.manager.Destroy(o.conn)
	o.res.Hijack()
}

// detach removes a checked-out connection from the pool's accounting.
func (p *Pool) detach(o *Object) {
	defer p.admission.Release(1)
	o.res.Hijack()
}

// Close rejects further Get calls and destroys idle connections. It blocks
// until every checked-out connection has been returned; connections returned
// after Close are destroyed without recycling.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.resources.Close()
		p.logger.Debug("pool closed")
	})
}

// Status returns a point-in-time snapshot of the pool. It never blocks on
// connection activity.
func (p *Pool) Status() Status {
	stat := p.resources.Stat()
	return Status{
		Size:      int(stat.TotalResources()),
		Available: int(stat.IdleResources()),
		Waiting:   int(p.waiting.Load()),
		MaxSize:   p.maxSize,
	}
}

// Stats returns the pool's cumulative counters.
func (p *Pool) Stats() Stats {
	stat := p.resources.Stat()
	return Stats{
		Created:         p.created.Load(),
		CreateFailures:  p.createFailures.Load(),
		Recycled:        p.recycled.Load(),
		RecycleFailures: p.recycleFailures.Load(),
		WaitTimeouts:    p.waitTimeouts.Load(),
		Acquires:        stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration(),
	}
}

// MaxSize returns the pool's capacity.
func (p *Pool) MaxSize() int { return p.maxSize }

// Timeouts returns the pool's timeouts.
func (p *Pool) Timeouts() Timeouts { return p.timeouts }

// Manager returns the connection manager used by the pool.
func (p *Pool) Manager() *ConnectionManager { return p.manager }

// withTimeout applies d to ctx unless d is negative.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
