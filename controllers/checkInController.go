package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/logger"
	"github.com/Alidon256/Mindset-Pulse-sub000/metrics"
	"github.com/Alidon256/Mindset-Pulse-sub000/models"
	"github.com/Alidon256/Mindset-Pulse-sub000/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type checkInRequest struct {
	Answers         []int    `json:"answers" validate:"required,min=1,dive,min=1,max=5"`
	SentimentScore  *float64 `json:"sentiment_score" validate:"required,min=-1,max=1"`
	Insight         string   `json:"insight"`
	TimestampMillis int64    `json:"timestamp_millis" validate:"min=0"`
}

// CreateCheckIn classifies the day's answers and stores the result.
func (h *Handler) CreateCheckIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		var body checkInRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check-in payload"})
			return
		}
		if err := validate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		submittedAt := h.now()
		if body.TimestampMillis > 0 {
			submittedAt = time.UnixMilli(body.TimestampMillis).In(submittedAt.Location())
		} else {
			body.TimestampMillis = submittedAt.UnixMilli()
		}

		result, err := services.ClassifyCheckIn(body.Answers, *body.SentimentScore, body.Insight, body.TimestampMillis)
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		metrics.RecordCheckIn(result.State.String())

		stored, err := h.CheckIns.SaveResult(c.Request.Context(), userID, models.DateOf(submittedAt), result)
		if err != nil {
			logger.L().Error("save check-in failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stored)
	}
}

// GetMyCheckIns returns the user's latest check-in results.
func (h *Handler) GetMyCheckIns() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		limit := queryInt(c, "limit", 14, 365)
		results, err := h.CheckIns.ResultsByUser(c.Request.Context(), userID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

// CreateJournalEntry stores a journal entry used by the analytics summary.
func (h *Handler) CreateJournalEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}
		var entry models.CheckInEntry
		if err := c.ShouldBindJSON(&entry); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid journal entry payload"})
			return
		}
		if err := validate.Struct(entry); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		entry.ID = primitive.NilObjectID
		entry.UserID = userID
		if entry.CBTExerciseType == "" {
			entry.CBTExerciseType = models.CBTNone
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = h.now()
		}

		if err := h.CheckIns.SaveEntry(c.Request.Context(), &entry); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// GetHighRiskUsers returns each user's latest result ordered by risk (admin only).
func (h *Handler) GetHighRiskUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 10, 100)
		results, err := h.CheckIns.HighRiskUsers(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, results)
	}
}
