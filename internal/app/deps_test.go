package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/handlers"
)

type fakePool struct{ pingErr error }

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func (p fakePool) Ping(context.Context) error { return p.pingErr }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func build(t *testing.T, cfg config.Config, reg *prometheus.Registry) handlers.Dependencies {
	t.Helper()
	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, reg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	})
	return deps
}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		FFprobePath:    "ffprobe",
		FFprobeTimeout: time.Second,
		ObjectStore:    config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
		Reaper:         config.ReaperConfig{QueueSize: 4, Workers: 1, Timeout: time.Second},
		RateLimit:      config.RateLimitConfig{Requests: 10, Window: time.Second, Burst: 2},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps := build(t, cfg, prometheus.NewRegistry())

	if deps.Toggles == nil {
		t.Fatal("expected engagement service to be configured")
	}
	if deps.Deleter == nil {
		t.Fatal("expected cascade deleter to be configured")
	}
	if deps.Views == nil {
		t.Fatal("expected view builder to be configured")
	}
	if deps.Content == nil {
		t.Fatal("expected content service to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if deps.DB == nil {
		t.Fatal("expected pool to be used as health pinger")
	}
	if deps.Metrics == nil {
		t.Fatal("expected metrics handler to be configured")
	}
}

func TestBuildDependenciesServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := build(t, config.Config{}, reg)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthy pool, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBlobBackend(t *testing.T) {
	if got := blobBackend(config.ObjectStoreConfig{}); got != "memory" {
		t.Fatalf("expected memory backend got %s", got)
	}
	if got := blobBackend(config.ObjectStoreConfig{Bucket: "media"}); got != "s3" {
		t.Fatalf("expected s3 backend got %s", got)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without command")
	}
	if err := Run(context.Background(), []string{"seed"}); err == nil || !strings.Contains(err.Error(), "seed") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_views.sql", "0001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700); err != nil {
		t.Fatal(err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(got) != "[0001_init.sql 0002_views.sql]" {
		t.Fatalf("unexpected migrations %v", got)
	}

	pending := pendingMigrations(got, map[string]struct{}{"0001_init.sql": {}})
	if fmt.Sprint(pending) != "[0002_views.sql]" {
		t.Fatalf("unexpected pending %v", pending)
	}

	var buf bytes.Buffer
	printStatus(&buf, got, map[string]struct{}{"0001_init.sql": {}})
	if buf.String() != "[x] 0001_init.sql\n[ ] 0002_views.sql\n" {
		t.Fatalf("unexpected status output %q", buf.String())
	}
}

func TestMigrationBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		1:  100 * time.Millisecond,
		2:  200 * time.Millisecond,
		3:  400 * time.Millisecond,
		10: migrationMaxBackoff,
		80: migrationMaxBackoff,
	}
	for attempt, want := range cases {
		if got := migrationBackoff(attempt); got != want {
			t.Fatalf("attempt %d: expected %s got %s", attempt, want, got)
		}
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("syntax error"), false},
		{context.DeadlineExceeded, true},
		{pgx.ErrTxClosed, true},
		{fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"}), true},
		{&pgconn.PgError{Code: "42601"}, false},
	}
	for _, tc := range cases {
		if got := shouldRetryMigration(tc.err); got != tc.want {
			t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
