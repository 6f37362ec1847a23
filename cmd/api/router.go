package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/container"
)

// SetupRouter wires the HTTP surface: public catalog reads, customer
// order routes behind authentication, staff routes behind the admin
// check
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		// Public catalog reads, no authentication
		c.VariantHandler.RegisterRoutes(v1)

		// Customer order routes
		authed := v1.Group("", middleware.AuthMiddleware(c.JWTManager))
		c.OrderHandler.RegisterRoutes(authed)

		// Staff routes: order administration and the point-of-sale flow
		staff := v1.Group("/admin",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.AdminMiddleware(),
		)
		c.OrderHandler.RegisterAdminRoutes(staff)
		c.PosHandler.RegisterRoutes(staff)
	}

	return router
}

// healthCheckHandler reports process and dependency health
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		dbStatus := "ok"
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			dbStatus = "down"
		}
		cacheStatus := "ok"
		if err := c.Cache.Ping(ctx.Request.Context()); err != nil {
			cacheStatus = "down"
		}

		status := http.StatusOK
		if dbStatus != "ok" {
			status = http.StatusServiceUnavailable
		}
		response.Success(ctx, status, gin.H{
			"name":     c.Config.App.Name,
			"version":  c.Config.App.Version,
			"database": dbStatus,
			"cache":    cacheStatus,
		})
	}
}
