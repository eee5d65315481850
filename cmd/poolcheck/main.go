// Command poolcheck drives a pool built from a config file with concurrent
// workers and reports how it behaved. It is meant for smoke-testing a
// backend and for watching pool metrics under load.
//
//	poolcheck -config pool.yaml -concurrency 32 -iterations 200 -metrics-addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yuku/sessionpool"
	"github.com/yuku/sessionpool/internal/logging"
	"github.com/yuku/sessionpool/metrics"
	"github.com/yuku/sessionpool/poolconfig"
	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath  string
	concurrency int
	iterations  int
	hold        time.Duration
	metricsAddr string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a .yaml, .yml or .toml pool config (required)")
	flag.IntVar(&opts.concurrency, "concurrency", 4, "number of concurrent workers")
	flag.IntVar(&opts.iterations, "iterations", 100, "checkouts per worker")
	flag.DurationVar(&opts.hold, "hold", 0, "how long each worker keeps a connection checked out")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address and keep running until interrupted")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "poolcheck: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.configPath == "" {
		return errors.New("-config is required")
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("-concurrency must be at least 1, got %d", opts.concurrency)
	}

	file, err := poolconfig.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(file.Logging.Level, file.Logging.Format, os.Stderr)
	if err != nil {
		return err
	}

	builder, err := file.Builder(nil, logger)
	if err != nil {
		return err
	}
	pool, err := builder.Build()
	if err != nil {
		return err
	}
	defer pool.Close()

	cfg := file.ConnectionConfig()
	logger.Info("pool ready",
		"backend", cfg,
		"driver", file.Driver,
		"max_size", pool.MaxSize(),
		"timeouts", fmt.Sprintf("%+v", pool.Timeouts()))

	var server *http.Server
	if opts.metricsAddr != "" {
		server, err = serveMetrics(opts.metricsAddr, pool, cfg, logger)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	failures, err := drive(ctx, pool, opts, logger)
	if err != nil {
		return err
	}

	status := pool.Status()
	stats := pool.Stats()
	fmt.Printf("checkouts: %d ok, %d failed in %s\n",
		int64(opts.concurrency*opts.iterations)-failures, failures, time.Since(start).Round(time.Millisecond))
	fmt.Printf("status:    size=%d available=%d waiting=%d max_size=%d\n",
		status.Size, status.Available, status.Waiting, status.MaxSize)
	fmt.Printf("counters:  created=%d create_failures=%d recycled=%d recycle_failures=%d wait_timeouts=%d\n",
		stats.Created, stats.CreateFailures, stats.Recycled, stats.RecycleFailures, stats.WaitTimeouts)

	if server != nil {
		logger.Info("serving metrics until interrupted", "addr", opts.metricsAddr)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
	}

	return nil
}

// drive runs the workers and returns the number of failed checkouts. Only an
// interrupted run is an error; pool errors are counted and logged.
func drive(ctx context.Context, pool *sessionpool.Pool, opts options, logger *slog.Logger) (int64, error) {
	var failures atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.concurrency {
		g.Go(func() error {
			for i := range opts.iterations {
				if err := ctx.Err(); err != nil {
					return err
				}

				err := pool.Do(ctx, func(ctx context.Context, conn *sessionpool.Conn) error {
					if opts.hold > 0 {
						select {
						case <-time.After(opts.hold):
						case <-ctx.Done():
							return ctx.Err()
						}
					}
					return conn.Session().Ping(ctx)
				})
				if err != nil {
					failures.Add(1)
					logger.Warn("checkout failed", "worker", w, "iteration", i, "error", err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return failures.Load(), fmt.Errorf("interrupted: %w", err)
	}
	return failures.Load(), nil
}

func serveMetrics(addr string, pool *sessionpool.Pool, cfg sessionpool.ConnectionConfig, logger *slog.Logger) (*http.Server, error) {
	collector := metrics.NewCollector(pool, "sessionpool", prometheus.Labels{
		"backend": cfg.Addr(),
		"service": cfg.Service,
	})
	handler, err := metrics.Handler(collector)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return server, nil
}
