package routes

import (
	"net/http"

	"github.com/Alidon256/Mindset-Pulse-sub000/controllers"
	"github.com/Alidon256/Mindset-Pulse-sub000/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the public health and metrics endpoints on r and the API under /api.
func SetupRoutes(r *gin.Engine, h *controllers.Handler) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	protected := api.Group("/")
	protected.Use(middleware.Authenticate())
	{
		// Daily check-ins
		protected.POST("/check-ins", h.CreateCheckIn())
		protected.GET("/check-ins", h.GetMyCheckIns())
		protected.POST("/journal-entries", h.CreateJournalEntry())
		protected.GET("/analytics/summary", h.GetMyAnalytics())

		// Mindfulness sessions / progression
		protected.POST("/sessions", h.CompleteSession())
		protected.GET("/progression", h.GetMyProgression())

		// ADMIN only
		protected.GET("/admin/high-risk",
			middleware.Authorize("ADMIN"),
			h.GetHighRiskUsers(),
		)
	}
}
