package http

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconfig "github.com/saker-ai/avatar-server/internal/config"
	"github.com/saker-ai/avatar-server/internal/metrics"
	"github.com/saker-ai/avatar-server/internal/ws"
)

// NewRouter builds the HTTP surface: health, the controller websocket,
// a state snapshot, metrics and an optional disk frontend.
func NewRouter(cfg appconfig.Config, wsHandler *ws.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/client-ws", func(c *gin.Context) {
		wsHandler.Handle(c.Writer, c.Request)
	})

	router.GET("/state", func(c *gin.Context) {
		state, err := wsHandler.StateSnapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"animation":   state.Clip,
			"emotion":     state.Emotion,
			"lookAt":      state.Look,
			"connections": wsHandler.SessionCount(),
		})
	})

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	if cfg.FrontendDir != "" {
		router.Static("/frontend", cfg.FrontendDir)
		router.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(cfg.FrontendDir, "index.html"))
		})
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		if logger == nil {
			return
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		)
	}
}
