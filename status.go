package sessionpool

import "time"

// Status is a point-in-time view of a pool.
type Status struct {
	// Size is the number of connections that exist, idle, checked out, being
	// created or being recycled.
	Size int

	// Available is the number of idle connections.
	Available int

	// Waiting is the number of callers suspended in Get.
	Waiting int

	// MaxSize is the pool's capacity.
	MaxSize int
}

// Stats holds cumulative counters since the pool was built.
type Stats struct {
	Created         int64
	CreateFailures  int64
	Recycled        int64
	RecycleFailures int64
	WaitTimeouts    int64

	// Acquires and AcquireDuration count successful checkouts from the
	// underlying resource pool and the time spent in them.
	Acquires        int64
	AcquireDuration time.Duration
}
