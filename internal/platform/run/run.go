package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// ShutdownTimeout bounds Graceful.
const ShutdownTimeout = 10 * time.Second

type Runner struct {
	Logger *zap.Logger
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log}
}

// WithSignals runs every start function concurrently until SIGINT/SIGTERM or
// until one of them returns. It returns the process exit code.
func (r *Runner) WithSignals(starts ...func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.until(ctx, starts...)
}

func (r *Runner) until(ctx context.Context, starts ...func(ctx context.Context) error) int {
	errCh := make(chan error, len(starts))
	for _, start := range starts {
		go func(start func(ctx context.Context) error) {
			errCh <- start(ctx)
		}(start)
	}

	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
		return 0
	case err := <-errCh:
		if err == nil {
			return 0
		}
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, grpc.ErrServerStopped) {
			return 0
		}
		r.Logger.Error("service exited with error", zap.Error(err))
		return 1
	}
}

// Graceful calls every shutdown function with a shared deadline.
func (r *Runner) Graceful(shutdowns ...func(context.Context) error) {
	c, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	for _, shutdown := range shutdowns {
		if err := shutdown(c); err != nil {
			r.Logger.Warn("graceful shutdown", zap.Error(err))
		}
	}
}

func Exit(code int) {
	os.Exit(code)
}
