package api

import (
	"net/http"

	"ireporter-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, authHandler *delivery.AuthHandler, gatherer prometheus.Gatherer) {
	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshTokenMiddleware("refresh"), authHandler.RefreshToken)
		auth.GET("/me", authHandler.AccessTokenMiddleware("me"), authHandler.Me)
		auth.PUT("/password", authHandler.AccessTokenMiddleware("change_password"), authHandler.FreshTokenMiddleware("change_password"), authHandler.ChangePassword)
		auth.POST("/logout", authHandler.AccessTokenMiddleware("logout"), authHandler.Logout)
	}
}
