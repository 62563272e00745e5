// Command epochgraph runs the bitemporal graph store server: HTTP API,
// Prometheus metrics listener, WebSocket change feed, and the
// LISTEN/NOTIFY bridge that feeds it.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/epochgraph/epochgraph/internal/api"
	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/config"
	"github.com/epochgraph/epochgraph/internal/db"
	"github.com/epochgraph/epochgraph/internal/db/migrations"
	"github.com/epochgraph/epochgraph/internal/dbpool"
	"github.com/epochgraph/epochgraph/internal/service"
	"github.com/epochgraph/epochgraph/internal/store"
	"github.com/epochgraph/epochgraph/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if err := db.EnsureVectorDimensions(ctx, pool, log, cfg.EmbeddingDims); err != nil {
		return fmt.Errorf("ensuring vector dimensions: %w", err)
	}

	oracle := buildOracle(cfg, log)

	base := store.Base{Pool: pool, Log: log, Authz: oracle}
	entityStore := store.NewEntityStore(base)
	ontologyStore := store.NewOntologyStore(base)
	graphStore := store.NewGraphStore(base)
	webStore := store.NewWebStore(base)
	embeddingStore := store.NewEmbeddingStore(base)

	traverser := service.NewTraverser(graphStore, ontologyStore, oracle, log)
	entitySvc := service.NewEntityService(entityStore, embeddingStore, log)
	ontologySvc := service.NewOntologyService(ontologyStore, embeddingStore, log)
	querySvc := service.NewQueryService(entityStore, ontologyStore, traverser, cfg.QueryLimit, log)
	webSvc := service.NewWebService(webStore, log)
	embeddingSvc := service.NewEmbeddingService(embeddingStore, log)

	hub := ws.NewHub(log)
	bridge := db.NewNotifyBridge(log, pool, hub)
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting notify bridge: %w", err)
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Oracle:      oracle,
		Entities:    entitySvc,
		Ontology:    ontologySvc,
		Query:       querySvc,
		Webs:        webSvc,
		Embeddings:  embeddingSvc,
		ActorLookup: webStore,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	apiServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)

		return nil
	})

	g.Go(func() error {
		log.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		log.WithField("addr", metricsServer.Addr).Info("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("api server shutdown")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("metrics server shutdown")
		}

		return nil
	})

	return g.Wait()
}

// buildOracle selects the permission backend: the HTTP service when
// configured, otherwise the allow-all static oracle for local setups.
func buildOracle(cfg *config.Config, log *logrus.Logger) authz.Oracle {
	if cfg.PermissionURL == "" {
		log.Warn("no permission service configured, all permission checks will pass")

		return authz.NewStaticOracle()
	}

	log.WithField("url", cfg.PermissionURL).Info("using permission service")

	return authz.NewHTTPOracle(cfg.PermissionURL, cfg.PermissionToken.Value())
}
