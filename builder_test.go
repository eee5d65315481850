package sessionpool_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yuku/sessionpool"
	"github.com/yuku/sessionpool/internal/fakedb"
)

func testConfig() sessionpool.ConnectionConfig {
	return sessionpool.NewConnectionConfig("localhost", 1521, "FREEPDB1", "test", "test")
}

func TestPoolBuilder_Defaults(t *testing.T) {
	tuning := sessionpool.NewPoolBuilder(testConfig(), fakedb.New()).Tuning()

	require.Equal(t, runtime.NumCPU()*4, tuning.MaxSize)
	require.Equal(t, 30*time.Second, tuning.Timeouts.Wait)
	require.Equal(t, 30*time.Second, tuning.Timeouts.Create)
	require.Equal(t, 5*time.Second, tuning.Timeouts.Recycle)
	require.Equal(t, sessionpool.DefaultTuning(), tuning)
}

func TestPoolBuilder_Configuration(t *testing.T) {
	tuning := sessionpool.NewPoolBuilder(testConfig(), fakedb.New()).
		MaxSize(5).
		WaitTimeout(10 * time.Second).
		CreateTimeout(sessionpool.NoTimeout).
		RecycleTimeout(2 * time.Second).
		Tuning()

	require.Equal(t, 5, tuning.MaxSize)
	require.Equal(t, 10*time.Second, tuning.Timeouts.Wait)
	require.Equal(t, sessionpool.NoTimeout, tuning.Timeouts.Create)
	require.Equal(t, 2*time.Second, tuning.Timeouts.Recycle)

	replaced := sessionpool.NewPoolBuilder(testConfig(), fakedb.New()).
		Timeouts(sessionpool.Timeouts{Wait: 0, Create: time.Second, Recycle: time.Millisecond}).
		Tuning()
	require.Equal(t, sessionpool.Timeouts{Wait: 0, Create: time.Second, Recycle: time.Millisecond}, replaced.Timeouts)
}

func TestPoolBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		driver  sessionpool.Driver
		errMsg  string
	}{
		{
			name:    "zero max size",
			maxSize: 0,
			driver:  fakedb.New(),
			errMsg:  "invalid pool configuration: MaxSize must be at least 1, got 0",
		},
		{
			name:    "negative max size",
			maxSize: -3,
			driver:  fakedb.New(),
			errMsg:  "invalid pool configuration: MaxSize must be at least 1, got -3",
		},
		{
			name:    "missing driver",
			maxSize: 1,
			errMsg:  "invalid pool configuration: Driver is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := sessionpool.NewPoolBuilder(testConfig(), tt.driver).MaxSize(tt.maxSize).Build()
			require.Nil(t, pool)
			require.Error(t, err)
			require.True(t, errors.Is(err, sessionpool.ErrInvalidConfiguration), "got %v", err)
			require.EqualError(t, err, tt.errMsg)
		})
	}

	t.Run("is lazy", func(t *testing.T) {
		driver := fakedb.New()
		pool, err := sessionpool.NewPoolBuilder(testConfig(), driver).MaxSize(10).Build()
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		require.Equal(t, sessionpool.Status{Size: 0, Available: 0, Waiting: 0, MaxSize: 10}, pool.Status())
		require.Zero(t, driver.Attempts())
		require.Equal(t, 10, pool.MaxSize())
		require.Equal(t, sessionpool.DefaultTimeouts(), pool.Timeouts())
	})

	t.Run("keeps its own copy of the config", func(t *testing.T) {
		cfg := testConfig().WithServerPool("app_pool", sessionpool.PuritySelf)
		builder := sessionpool.NewPoolBuilder(cfg, fakedb.New())
		cfg.ServerPool.Name = "mutated"

		pool, err := builder.Build()
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		require.Equal(t, "app_pool", pool.Manager().Config().ServerPool.Name)
	})
}

func TestIntoPool(t *testing.T) {
	pool, err := sessionpool.IntoPool(testConfig(), fakedb.New())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.Equal(t, sessionpool.DefaultMaxSize(), pool.MaxSize())
	require.Equal(t, sessionpool.DefaultTimeouts(), pool.Timeouts())

	sized, err := sessionpool.IntoPoolWithSize(testConfig(), fakedb.New(), 3)
	require.NoError(t, err)
	t.Cleanup(sized.Close)
	require.Equal(t, 3, sized.MaxSize())

	_, err = sessionpool.IntoPoolWithSize(testConfig(), fakedb.New(), 0)
	require.ErrorIs(t, err, sessionpool.ErrInvalidConfiguration)
}
