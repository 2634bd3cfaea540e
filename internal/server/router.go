package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quote-api/internal/common/config"
	"quote-api/internal/common/logger"
)

// NewRouter wires the middleware chain and routes. Security headers and CORS
// apply to every response regardless of outcome.
func NewRouter(cfg *config.Config, handler *QuoteHandler, log logger.Logger) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		Recovery(log),
		SecurityHeaders(),
		CORS(cfg.Server.AllowedOrigins, cfg.App.IsProduction()),
	)

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Méthode non autorisée."})
	})

	r.POST("/api/quote", handler.Handle)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.App.Name})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
