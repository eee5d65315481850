package sessionpool

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"
)

// NoTimeout disables a timeout. Any negative duration has the same meaning.
const NoTimeout time.Duration = -1

// Defaults used by DefaultTimeouts and by a fresh PoolBuilder.
const (
	DefaultWaitTimeout    = 30 * time.Second
	DefaultCreateTimeout  = 30 * time.Second
	DefaultRecycleTimeout = 5 * time.Second
)

// Timeouts bounds the three phases that may suspend a caller. A negative value
// means the phase is unbounded; zero is a real bound.
type Timeouts struct {
	// Wait bounds how long Get waits for a free slot.
	Wait time.Duration

	// Create bounds opening a new session.
	Create time.Duration

	// Recycle bounds the rollback and ping run when a connection is released.
	Recycle time.Duration
}

// DefaultTimeouts returns 30s wait, 30s create and 5s recycle.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Wait:    DefaultWaitTimeout,
		Create:  DefaultCreateTimeout,
		Recycle: DefaultRecycleTimeout,
	}
}

// TuningParameters are the capacity and timeout settings of a pool.
type TuningParameters struct {
	MaxSize  int
	Timeouts Timeouts
}

// DefaultMaxSize returns the default capacity: four connections per CPU.
func DefaultMaxSize() int {
	return runtime.NumCPU() * 4
}

// DefaultTuning returns the default tuning parameters.
func DefaultTuning() TuningParameters {
	return TuningParameters{
		MaxSize:  DefaultMaxSize(),
		Timeouts: DefaultTimeouts(),
	}
}

// Validate checks that the parameters can produce a pool.
func (t TuningParameters) Validate() error {
	if t.MaxSize < 1 {
		return fmt.Errorf("%w: MaxSize must be at least 1, got %d", ErrInvalidConfiguration, t.MaxSize)
	}
	if t.MaxSize > math.MaxInt32 {
		return fmt.Errorf("%w: MaxSize must be at most %d, got %d", ErrInvalidConfiguration, math.MaxInt32, t.MaxSize)
	}
	return nil
}

// PoolBuilder binds a ConnectionConfig, a Driver and TuningParameters into a
// Pool. Building performs no I/O: connections are opened on first demand.
type PoolBuilder struct {
	config ConnectionConfig
	driver Driver
	tuning TuningParameters
	logger *slog.Logger
}

// NewPoolBuilder returns a builder with default tuning parameters.
func NewPoolBuilder(cfg ConnectionConfig, driver Driver) *PoolBuilder {
	return &PoolBuilder{
		config: cfg.clone(),
		driver: driver,
		tuning: DefaultTuning(),
	}
}

// MaxSize sets the maximum number of connections. Default is NumCPU * 4.
func (b *PoolBuilder) MaxSize(n int) *PoolBuilder {
	b.tuning.MaxSize = n
	return b
}

// WaitTimeout sets how long Get waits for a slot when the pool is exhausted.
// Default is 30s. Pass NoTimeout to wait indefinitely.
func (b *PoolBuilder) WaitTimeout(d time.Duration) *PoolBuilder {
	b.tuning.Timeouts.Wait = d
	return b
}

// CreateTimeout sets how long opening a session may take. Default is 30s.
// Pass NoTimeout to wait indefinitely.
func (b *PoolBuilder) CreateTimeout(d time.Duration) *PoolBuilder {
	b.tuning.Timeouts.Create = d
	return b
}

// RecycleTimeout sets how long the health check on release may take. Default
// is 5s. Pass NoTimeout to wait indefinitely.
func (b *PoolBuilder) RecycleTimeout(d time.Duration) *PoolBuilder {
	b.tuning.Timeouts.Recycle = d
	return b
}

// Timeouts replaces all three timeouts.
func (b *PoolBuilder) Timeouts(t Timeouts) *PoolBuilder {
	b.tuning.Timeouts = t
	return b
}

// Logger sets the logger used by the pool and its manager.
func (b *PoolBuilder) Logger(l *slog.Logger) *PoolBuilder {
	b.logger = l
	return b
}

// Tuning returns the parameters the builder currently holds.
func (b *PoolBuilder) Tuning() TuningParameters {
	return b.tuning
}

// Build validates the parameters and returns the pool.
func (b *PoolBuilder) Build() (*Pool, error) {
	if b.driver == nil {
		return nil, fmt.Errorf("%w: Driver is required", ErrInvalidConfiguration)
	}
	if err := b.tuning.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	manager := NewConnectionManager(b.config, b.driver, logger)
	return newPool(manager, b.tuning, logger)
}

// IntoPool builds a pool for cfg with default tuning parameters.
func IntoPool(cfg ConnectionConfig, driver Driver) (*Pool, error) {
	return NewPoolBuilder(cfg, driver).Build()
}

// IntoPoolWithSize builds a pool for cfg with default timeouts and the given
// maximum size.
func IntoPoolWithSize(cfg ConnectionConfig, driver Driver, maxSize int) (*Pool, error) {
	return NewPoolBuilder(cfg, driver).MaxSize(maxSize).Build()
}
