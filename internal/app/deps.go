package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/blobs"
	"github.com/vidtube/backend/internal/cascade"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/content"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// limiterTTL is how long an idle caller's token bucket is kept.
const limiterTTL = 10 * time.Minute

// registerRule throttles account creation per client address.
var registerRule = middleware.Rule{Requests: 5, Window: time.Hour, Burst: 2}

func newLimiter(cfg config.RateLimitConfig) *middleware.KeyedLimiter {
	limiter := middleware.NewKeyedLimiter(middleware.Rule{
		Requests: cfg.Requests,
		Window:   cfg.Window,
		Burst:    cfg.Burst,
	}, limiterTTL)
	limiter.SetRule("register", registerRule)
	return limiter
}

func blobBackend(cfg config.ObjectStoreConfig) string {
	if cfg.Bucket == "" {
		return "memory"
	}
	return "s3"
}

func newBlobStore(ctx context.Context, cfg config.ObjectStoreConfig, prober blobs.Prober) (blobs.Store, error) {
	if cfg.Bucket == "" {
		return blobs.NewMemoryStore(prober), nil
	}
	store, err := blobs.NewS3Storage(ctx, cfg, prober)
	if err != nil {
		return nil, fmt.Errorf("configure object store: %w", err)
	}
	return store, nil
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the blob reaper.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, reg *prometheus.Registry, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	prober := blobs.NewFFprobe(cfg.FFprobePath, cfg.FFprobeTimeout)
	store, err := newBlobStore(ctx, cfg.ObjectStore, prober)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	// A nil registry leaves the collectors unregistered.
	var registerer prometheus.Registerer
	metricsHandler := promhttp.Handler()
	if reg != nil {
		registerer = reg
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	m := metrics.New(registerer)

	reaper := blobs.NewReaper(store, m, blobs.ReaperConfig{
		QueueSize: cfg.Reaper.QueueSize,
		Workers:   cfg.Reaper.Workers,
		Timeout:   cfg.Reaper.Timeout,
	}, logger)

	accounts := repositories.NewPostgresAccountRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)

	var pinger db.Pinger
	if p, ok := pool.(db.Pinger); ok {
		pinger = p
	}

	deps := handlers.Dependencies{
		Toggles: &engagement.Service{
			Accounts:      accounts,
			Videos:        videos,
			Comments:      comments,
			Tweets:        tweets,
			Likes:         likes,
			Subscriptions: subscriptions,
			Metrics:       m,
		},
		Deleter: &cascade.Deleter{
			Accounts:      accounts,
			Videos:        videos,
			Comments:      comments,
			Tweets:        tweets,
			Likes:         likes,
			Subscriptions: subscriptions,
			Playlists:     playlists,
			Blobs:         reaper,
			Metrics:       m,
		},
		Views: &views.Builder{
			Accounts:      accounts,
			Videos:        videos,
			Comments:      comments,
			Tweets:        tweets,
			Likes:         likes,
			Subscriptions: subscriptions,
			Playlists:     playlists,
		},
		Content: &content.Service{
			Accounts:  accounts,
			Videos:    videos,
			Comments:  comments,
			Tweets:    tweets,
			Playlists: playlists,
			Blobs:     store,
			Cleanup:   reaper,
			Metrics:   m,
		},
		Limiter:   newLimiter(cfg.RateLimit),
		DB:        pinger,
		Metrics:   metricsHandler,
		UploadDir: cfg.UploadDir,
	}

	return deps, reaper.Shutdown, nil
}
