package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category"
	categoryrepo "github.com/ovaphlow/pitchfork/service-movies-go/internal/category/repo"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/movie"
	movierepo "github.com/ovaphlow/pitchfork/service-movies-go/internal/movie/repo"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/utilities"
)

const shutdownGrace = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Pending migrations are applied first unless
AUTO_MIGRATE=0. The process stops gracefully on SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sugar, sync, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer sync()

	sugar.Infow("starting movies api", "addr", cfg.HTTPAddr, "driver", cfg.Database.Driver)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := migrate(ctx, db); err != nil {
			return err
		}
		sugar.Info("migrations applied")
	}

	c, closeCache := openCache(ctx, cfg, sugar)
	defer closeCache()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := buildHandler(cfg, db, c, reg, sugar)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
		}
	}

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
	return nil
}

// openCache returns a Redis cache when REDIS_URL is set and reachable, Noop
// otherwise. The catalog stays correct without the cache.
func openCache(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		return cache.Noop{}, func() {}
	}
	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warnw("redis unavailable, caching disabled", "err", err)
		return cache.Noop{}, func() {}
	}
	return cache.NewRedis(rdb, "movies:", cfg.CacheTTL), func() { _ = rdb.Close() }
}

// buildHandler wires repositories, services and handlers into the router.
func buildHandler(cfg config.Config, db *sqlx.DB, c cache.Cache, reg *prometheus.Registry, logger *zap.SugaredLogger) (http.Handler, error) {
	ids, err := utilities.NewIDGenerator(cfg.SnowflakeNode)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("key", "SNOWFLAKE_NODE").Wrap(err)
	}
	users, tokens, err := newUserService(cfg, db, logger)
	if err != nil {
		return nil, err
	}

	categories := category.NewService(categoryrepo.NewRepo(db), ids, c, logger)
	movies := movie.NewService(movierepo.NewMovieRepo(db), categories, ids, c, logger)

	return router.RegisterRoutes(logger, router.Handlers{
		Users:      user.NewHandler(users, logger),
		Categories: category.NewHandler(categories, logger),
		Movies:     movie.NewHandler(movies, logger),
	}, router.Options{
		Tokens:      tokens,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     router.NewMetrics(reg),
		Gatherer:    reg,
	}), nil
}
