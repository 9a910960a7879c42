package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config wires the handlers and cross-cutting middleware into an engine
type Config struct {
	JWTService  *auth.JWTService
	CORSOrigins []string
	Logger      *zap.Logger

	Health  *handler.HealthHandler
	Orders  *handler.OrderHandler
	Returns *handler.ReturnHandler
	Tickets *handler.TicketHandler
	Stream  *handler.StreamHandler
}

// New builds the gin engine with all routes registered
func New(cfg Config) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(middleware.CORSWithOrigins(cfg.CORSOrigins))
	}
	engine.Use(middleware.JWTAuthMiddleware(cfg.JWTService))

	api := engine.Group("/api/v1")

	api.GET("/health", cfg.Health.Health)

	orders := api.Group("/orders")
	{
		orders.POST("", cfg.Orders.Create)
		orders.GET("", cfg.Orders.List)
		orders.GET("/:id", cfg.Orders.Get)
		orders.POST("/:id/transition", cfg.Orders.Transition)
		orders.POST("/:id/items/:item_id/status", cfg.Orders.UpdateItemStatus)
		orders.POST("/:id/returns", cfg.Returns.Create)
		orders.GET("/:id/returns", cfg.Returns.ListByOrder)
	}

	returns := api.Group("/returns")
	{
		returns.GET("", cfg.Returns.List)
		returns.GET("/:id", cfg.Returns.Get)
		returns.POST("/:id/advance", cfg.Returns.Advance)
	}

	tickets := api.Group("/tickets")
	{
		tickets.POST("", cfg.Tickets.Create)
		tickets.GET("", cfg.Tickets.List)
		tickets.GET("/:id", cfg.Tickets.Get)
		tickets.POST("/:id/messages", cfg.Tickets.PostMessage)
		tickets.POST("/:id/assign", middleware.RequireStaff(), cfg.Tickets.Assign)
		tickets.POST("/:id/resolve", middleware.RequireStaff(), cfg.Tickets.Resolve)
	}

	api.GET("/stream", cfg.Stream.Stream)

	return engine
}
