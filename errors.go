package sessionpool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned by PoolBuilder.Build for tuning
	// parameters that cannot produce a pool.
	ErrInvalidConfiguration = errors.New("invalid pool configuration")

	// ErrCreateFailed matches every *CreateError.
	ErrCreateFailed = errors.New("failed to create connection")

	// ErrWaitTimedOut is returned by Pool.Get when no connection became
	// available within the wait timeout.
	ErrWaitTimedOut = errors.New("timed out waiting for a connection")

	// ErrRecycleFailed matches every *RecycleError. Pool callers never see it:
	// the pool destroys connections that fail to recycle.
	ErrRecycleFailed = errors.New("failed to recycle connection")

	// ErrPoolClosed is returned by Pool.Get after Pool.Close.
	ErrPoolClosed = errors.New("pool is closed")

	errNilSession = errors.New("driver returned a nil session")
)

// CreateError reports a session that could not be opened, either because the
// backend rejected it or because the create timeout elapsed.
type CreateError struct {
	Err error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("failed to create connection: %v", e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

func (e *CreateError) Is(target error) bool { return target == ErrCreateFailed }

// RecycleError reports which recycle step rejected a connection.
type RecycleError struct {
	// Op is one of "closed", "rollback" or "ping".
	Op  string
	Err error
}

func (e *RecycleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to recycle connection: %s", e.Op)
	}
	return fmt.Sprintf("failed to recycle connection: %s: %v", e.Op, e.Err)
}

func (e *RecycleError) Unwrap() error { return e.Err }

func (e *RecycleError) Is(target error) bool { return target == ErrRecycleFailed }
