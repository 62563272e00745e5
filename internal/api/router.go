package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/dbpool"
	"github.com/epochgraph/epochgraph/internal/middleware"
	"github.com/epochgraph/epochgraph/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Hub         *ws.Hub
	Oracle      authz.Oracle
	Entities    EntityRepository
	Ontology    OntologyRepository
	Query       QueryRepository
	Webs        WebRepository
	Embeddings  EmbeddingRepository
	ActorLookup middleware.ActorLookup
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per client
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.ActorIDHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Oracle, log, deps.Version)
	entities := NewEntityHandler(deps.Entities, log)
	ontology := NewOntologyHandler(deps.Ontology, log)
	queries := NewQueryHandler(deps.Query, log)
	webs := NewWebHandler(deps.Webs, log)
	embeddings := NewEmbeddingHandler(deps.Embeddings, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require a resolvable actor.
	lookup := middleware.NewCachedActorLookup(ctx, deps.ActorLookup)
	api.Use(middleware.ActorAuth(lookup, log))

	// Entities.
	api.POST("/entities", entities.Create)
	api.PATCH("/entities", entities.Update)
	api.POST("/entities/promote", entities.PromoteDraft)
	api.POST("/entities/query", queries.QueryEntities)
	api.GET("/entities/:id", queries.Get)

	// Entity types.
	api.POST("/entity-types", ontology.Create)
	api.POST("/entity-types/archive", ontology.Archive)
	api.POST("/entity-types/query", queries.QueryEntityTypes)
	api.GET("/entity-types", ontology.Get)

	// Webs and accounts.
	api.POST("/webs", webs.Create)
	api.GET("/webs/:shortname", webs.Get)
	api.POST("/accounts", webs.CreateAccount)

	// Embeddings.
	api.POST("/embeddings/entity", embeddings.UpsertEntity)
	api.POST("/embeddings/entity-type", embeddings.UpsertEntityType)

	// WebSocket change feed.
	api.GET("/watch", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, lookup))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
