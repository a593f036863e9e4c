package controllers

import (
	"errors"
	"net/http"

	"github.com/Alidon256/Mindset-Pulse-sub000/logger"
	"github.com/Alidon256/Mindset-Pulse-sub000/models"
	"github.com/Alidon256/Mindset-Pulse-sub000/services"

	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	ActivityType    models.ActivityType `json:"activity_type" validate:"required,oneof=breathing yoga meditation"`
	DurationSeconds int                 `json:"duration_seconds" validate:"min=0"`
	CompletionDate  string              `json:"completion_date"` // YYYY-MM-DD, caller's today
}

// CompleteSession records a finished mindfulness session against the user's progression.
// With a queue configured the session is accepted for background processing;
// otherwise it is applied on a detached write that outlives the request.
func (h *Handler) CompleteSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		var body sessionRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
			return
		}
		if err := validate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		today := h.today()
		if body.CompletionDate != "" {
			d, err := models.ParseDate(body.CompletionDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "completion_date must be YYYY-MM-DD"})
				return
			}
			// One day of slack covers clients ahead of the server's timezone.
			if today.AddDays(1).Before(d) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "completion_date is in the future"})
				return
			}
			today = d
		}
		session := models.CompletedSession{
			ActivityType:    body.ActivityType,
			DurationSeconds: body.DurationSeconds,
			CompletionDate:  today,
		}

		if h.Queue != nil {
			// The worker re-checks under the version guard; this only fails fast.
			current, err := h.Progression.Current(c.Request.Context(), userID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record session, try again"})
				return
			}
			if today.Before(current.LastActivityDate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrOutOfOrderSession.Error()})
				return
			}

			jobID, err := h.Queue.Enqueue(c.Request.Context(), userID, session)
			if err != nil {
				logger.L().Error("enqueue session failed", "user_id", userID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record session, try again"})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "queued"})
			return
		}

		select {
		case outcome := <-h.Progression.RecordDetached(c.Request.Context(), userID, session, today):
			if errors.Is(outcome.Err, services.ErrConcurrentUpdate) {
				c.JSON(http.StatusConflict, gin.H{"error": outcome.Err.Error()})
				return
			}
			if errors.Is(outcome.Err, services.ErrOutOfOrderSession) {
				c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrOutOfOrderSession.Error()})
				return
			}
			if outcome.Err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": outcome.Err.Error()})
				return
			}
			c.JSON(http.StatusOK, outcome.State)
		case <-c.Request.Context().Done():
			// Client went away; the detached write still completes.
			logger.L().Warn("client left before progression update finished", "user_id", userID)
		}
	}
}

// GetMyProgression returns the user's current streak and points.
func (h *Handler) GetMyProgression() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		state, err := h.Progression.Current(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}
