package httpgin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixcore/internal/metrics"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
	"github.com/kirinyoku/tixcore/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	eventMaxAge = 60 * time.Second
	listMaxAge  = 15 * time.Second
)

// ChangeFeed delivers committed entity changes.
type ChangeFeed interface {
	Subscribe(ctx context.Context, ready chan<- struct{}, handler func(ctx context.Context, msg redisrepo.ChangeMessage)) error
}

type Deps struct {
	Services    *service.Services
	Idempotency *redisrepo.IdempotencyStore
	Limiter     RateLimiter
	Changes     ChangeFeed
	Metrics     *metrics.Metrics
	// MetricsHandler serves /metrics; the route is absent when nil.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

func NewRouter(d Deps, middlewares ...gin.HandlerFunc) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()

	r.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		LoggingMiddleware(d.Logger),
		MetricsMiddleware(d.Metrics),
		CORS(),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	svcs := d.Services
	limit := RateLimitMiddleware(d.Limiter, d.Metrics, d.Logger)

	categories := r.Group("/categories")
	{
		categories.GET("", handleListCategories(svcs))
		categories.GET("/:id", handleGetCategory(svcs))
		categories.GET("/name/:name", handleGetCategoryByName(svcs))
		categories.POST("", limit, handleCreateCategory(svcs))
		categories.PUT("/:id", limit, handleUpdateCategory(svcs))
		categories.DELETE("/:id", limit, handleDeleteCategory(svcs))
	}

	events := r.Group("/events")
	{
		events.GET("", handleListEvents(svcs))
		events.GET("/changes", handleChanges(d.Changes))
		events.GET("/upcoming", handleUpcomingEvents(svcs))
		events.GET("/between", handleEventsBetween(svcs))
		events.GET("/category/:categoryId", handleEventsByCategory(svcs))
		events.GET("/status/:status", handleEventsByStatus(svcs))
		events.GET("/date/:date", handleEventsOnDate(svcs))
		events.GET("/:id", handleGetEvent(svcs))
		events.GET("/:id/sections", handleSectionsByEvent(svcs))
		events.GET("/:id/tickets", handleTicketsByEvent(svcs))

		events.POST("", limit, handleCreateEvent(svcs, d.Idempotency))
		events.PUT("/:id", limit, handleUpdateEvent(svcs))
		events.DELETE("/:id", limit, handleDeleteEvent(svcs))
		events.PATCH("/:id/cancel", limit, handleCancelEvent(svcs))
		events.PATCH("/:id/complete", limit, handleCompleteEvent(svcs))
		events.PATCH("/:id/capacity", limit, handleUpdateCapacity(svcs))
	}

	sections := r.Group("/sections")
	{
		sections.GET("", handleListSections(svcs))
		sections.GET("/:id", handleGetSection(svcs))
		sections.GET("/status/:status", handleSectionsByStatus(svcs))
		sections.POST("", limit, handleCreateSection(svcs, d.Idempotency))
		sections.PUT("/:id", limit, handleUpdateSection(svcs))
		sections.DELETE("/:id", limit, handleDeleteSection(svcs))
	}

	r.GET("/tickets/:id/transactions", handleTransactionsByTicket(svcs))

	return r
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// bindJSON decodes the body into v and answers 400 on malformed JSON.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
