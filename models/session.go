package models

import "time"

type ActivityType string

const (
	ActivityBreathing  ActivityType = "breathing"
	ActivityYoga       ActivityType = "yoga"
	ActivityMeditation ActivityType = "meditation"
)

// CompletedSession is produced once per finished mindfulness timer.
type CompletedSession struct {
	ActivityType    ActivityType `bson:"activity_type" json:"activity_type" validate:"required,oneof=breathing yoga meditation"`
	DurationSeconds int          `bson:"duration_seconds" json:"duration_seconds" validate:"min=0"`
	CompletionDate  Date         `bson:"completion_date" json:"completion_date"` // caller's "today"
}

// SessionJob is a completed session queued for a progression update.
// Attempts counts failed applications so far.
type SessionJob struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Session    CompletedSession `json:"session"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
	Attempts   int              `json:"attempts,omitempty"`
	LastError  string           `json:"last_error,omitempty"`

	// Raw is the payload as read from the queue, used to remove it again.
	Raw string `json:"-"`
}
