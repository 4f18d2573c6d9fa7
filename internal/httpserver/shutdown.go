package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// DefaultShutdownTimeout controls how long to wait for graceful shutdowns.
const DefaultShutdownTimeout = 10 * time.Second

// Serve runs srv until ctx is done or the listener fails. The server is then
// drained within timeout and each hook runs in order with the remaining
// budget. Hook errors are logged; the first one is returned.
func Serve(ctx context.Context, srv *Server, timeout time.Duration, logger *slog.Logger, hooks ...func(context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down http server", "reason", context.Cause(ctx))
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		logger.Error("http server shutdown", "error", err)
		runErr = err
	}
	for _, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			logger.Error("shutdown hook failed", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	return runErr
}
