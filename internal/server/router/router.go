package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/server/handlers"
	"github.com/smallflock/coopkeeper/internal/server/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Eggs        *handlers.EggHandler
	Expenses    *handlers.ExpenseHandler
	Feed        *handlers.FeedHandler
	Customers   *handlers.CustomerHandler
	Sales       *handlers.SaleHandler
	Flock       *handlers.FlockHandler
	Batches     *handlers.BatchHandler
	BatchEvents *handlers.BatchEventHandler
	FlockEvents *handlers.FlockEventHandler
}

// New wires the Gin engine with required routes and middlewares. Everything
// under /api requires a verified bearer token.
func New(h Handlers, requireAuth gin.HandlerFunc, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api", requireAuth)

	api.GET("/eggs", h.Eggs.List)
	api.POST("/eggs", h.Eggs.Upsert)
	api.GET("/eggs/summary", h.Eggs.Summary)
	api.DELETE("/eggs/:id", h.Eggs.Delete)

	api.GET("/expenses", h.Expenses.List)
	api.POST("/expenses", h.Expenses.Upsert)
	api.GET("/expenses/summary", h.Expenses.Summary)
	api.DELETE("/expenses/:id", h.Expenses.Delete)

	api.GET("/feed", h.Feed.List)
	api.POST("/feed", h.Feed.Upsert)
	api.GET("/feed/low-stock", h.Feed.LowStock)
	api.DELETE("/feed/:id", h.Feed.Delete)

	api.GET("/customers", h.Customers.List)
	api.POST("/customers", h.Customers.Create)
	api.PUT("/customers/:id", h.Customers.Update)
	api.DELETE("/customers/:id", h.Customers.Delete)

	api.GET("/sales", h.Sales.List)
	api.POST("/sales", h.Sales.Create)
	api.GET("/sales/summary", h.Sales.Summary)
	api.PUT("/sales/:id", h.Sales.Update)
	api.DELETE("/sales/:id", h.Sales.Delete)

	api.GET("/flock/profile", h.Flock.GetProfile)
	api.POST("/flock/profile", h.Flock.UpsertProfile)

	api.GET("/flock/batches", h.Batches.List)
	api.POST("/flock/batches", h.Batches.Create)
	api.PUT("/flock/batches/:id", h.Batches.Update)
	api.DELETE("/flock/batches/:id", h.Batches.Delete)
	api.GET("/flock/batches/:id/deaths", h.Batches.ListDeaths)
	api.POST("/flock/batches/:id/deaths", h.Batches.RecordDeath)

	api.GET("/flock/events", h.FlockEvents.List)
	api.POST("/flock/events", h.FlockEvents.Create)
	api.DELETE("/flock/events/:id", h.FlockEvents.Delete)

	api.GET("/batch-events", h.BatchEvents.List)
	api.POST("/batch-events", h.BatchEvents.Create)
	api.PUT("/batch-events/:id", h.BatchEvents.Update)
	api.DELETE("/batch-events/:id", h.BatchEvents.Delete)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
