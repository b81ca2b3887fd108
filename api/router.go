package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Venues   *VenueHandler
	Bookings *BookingHandler
	Payments *PaymentHandler
}

// NewRouter mounts the public and authenticated routes under /api/v1.
func NewRouter(jwtSecret []byte, logger *slog.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	public := router.Group("/api/v1")
	private := router.Group("/api/v1", IdentityMiddleware(jwtSecret))

	h.Venues.Register(public, private)
	h.Bookings.Register(private)
	h.Payments.Register(private)

	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
