package controllers

import (
	"net/http"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/services"

	"github.com/gin-gonic/gin"
)

// GetMyAnalytics summarizes the user's journal entries over the last `days` days (default 30).
func (h *Handler) GetMyAnalytics() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		days := queryInt(c, "days", 30, 365)
		since := h.now().Add(-time.Duration(days) * 24 * time.Hour)

		entries, err := h.CheckIns.EntriesSince(c.Request.Context(), userID, since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, services.SummarizeCheckIns(entries))
	}
}
