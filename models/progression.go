package models

import "time"

// MaxSessionsPerDay caps SessionsToday.
const MaxSessionsPerDay = 5

// ProgressionState is a user's streak and points record. The zero value is a new user.
type ProgressionState struct {
	CurrentStreak    int  `bson:"current_streak" json:"current_streak"`
	LongestStreak    int  `bson:"longest_streak" json:"longest_streak"`
	LastActivityDate Date `bson:"last_activity_date" json:"last_activity_date"`
	TotalMinutes     int  `bson:"total_minutes" json:"total_minutes"`
	SessionsToday    int  `bson:"sessions_today" json:"sessions_today"` // 0-5
	ResiliencePoints int  `bson:"resilience_points" json:"resilience_points"`
}

// ProgressionRecord is the persisted form of a user's ProgressionState.
// Version increases by one on every successful write.
type ProgressionRecord struct {
	UserID    string           `bson:"_id" json:"user_id"`
	State     ProgressionState `bson:"state" json:"state"`
	Version   int64            `bson:"version" json:"version"`
	UpdatedAt time.Time        `bson:"updated_at" json:"updated_at"`
}
