package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/helpers"
	"github.com/Alidon256/Mindset-Pulse-sub000/models"
	"github.com/Alidon256/Mindset-Pulse-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SessionEnqueuer accepts completed sessions for asynchronous processing.
type SessionEnqueuer interface {
	Enqueue(ctx context.Context, userID string, session models.CompletedSession) (string, error)
}

// Handler carries the collaborators the HTTP handlers need.
type Handler struct {
	CheckIns    services.CheckInStore
	Progression *services.ProgressionUpdater
	// Queue is optional; when nil sessions are applied inline.
	Queue    SessionEnqueuer
	Location *time.Location
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	if h.Now != nil {
		return h.Now().In(loc)
	}
	return time.Now().In(loc)
}

func (h *Handler) today() models.Date {
	return models.DateOf(h.now())
}

func getUserID(c *gin.Context) string {
	claimsVal, ok := c.Get("claims")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return ""
	}
	claims, ok := claimsVal.(*helpers.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid claims"})
		return ""
	}
	return claims.UserID
}

func queryInt(c *gin.Context, name string, def, upper int64) int64 {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}
