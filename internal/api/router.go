package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/domain"
	"github.com/persistorai/conceptmap/internal/middleware"
	"github.com/persistorai/conceptmap/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log            *logrus.Logger
	DB             DBChecker
	AppliedVersion SchemaVersionFunc
	SchemaVersion  int64
	Articles       domain.ArticleService
	Concepts       domain.ConceptService
	Stats          StatsReader
	Hub            *ws.Hub
	CORSOrigins    []string
	Version        string
}

// Router-level limits. Article routes get a second, stricter bucket because a
// cache miss fans out into one content fetch and several extraction calls.
const (
	rateLimit       = 50 // requests per second per IP
	rateBurst       = 100
	ingestRateLimit = 0.5
	ingestRateBurst = 10
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, "api", rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.DB, deps.AppliedVersion, deps.SchemaVersion, log, deps.Version)
	articles := NewArticleHandler(deps.Articles, log)
	concepts := NewConceptHandler(deps.Concepts, log)
	fields := NewFieldHandler(deps.Concepts, log)
	stats := NewStatsHandler(deps.Stats, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)
	api.GET("/stats", stats.GetStats)

	if deps.Hub != nil {
		api.GET("/events", eventsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
	}

	// Articles.
	art := api.Group("/articles", middleware.NewRateLimiter(ctx, "ingest", ingestRateLimit, ingestRateBurst).Handler())
	art.GET("/:id", articles.Get)
	art.GET("/:id/concept-map", articles.ConceptMap)

	// Concepts.
	api.GET("/concepts/search/:name", concepts.Search)
	api.GET("/concepts/:id", concepts.Get)
	api.GET("/concepts/:id/articles", concepts.Articles)

	// Fields of study.
	api.GET("/fields/search/:name", fields.Search)
	api.GET("/fields/:id", fields.Get)
	api.GET("/fields/:id/articles", fields.Articles)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
