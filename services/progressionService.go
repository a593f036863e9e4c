package services

import "github.com/Alidon256/Mindset-Pulse-sub000/models"

const (
	basePointsPerSession   = 50
	pointsPerMinute        = 10
	pointsPerSessionsToday = 20
)

// -------- Streak / points progression --------

// ApplySession returns the progression state after one more completed session on today.
//
// Every call counts as a new session, so calling it twice with the same
// arguments increments twice. It is not safe to apply two sessions against the
// same prior state concurrently; ProgressionUpdater serializes writes with a
// version check.
func ApplySession(previous models.ProgressionState, session models.CompletedSession, today models.Date) models.ProgressionState {
	isNewDay := previous.LastActivityDate != today

	next := previous
	next.CurrentStreak = nextStreak(previous, today)
	if next.CurrentStreak > previous.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastActivityDate = today

	minutes := sessionMinutes(session)
	next.TotalMinutes = previous.TotalMinutes + minutes

	if isNewDay {
		next.SessionsToday = 1
	} else {
		next.SessionsToday = min(previous.SessionsToday+1, models.MaxSessionsPerDay)
	}

	next.ResiliencePoints = previous.ResiliencePoints + SessionPoints(minutes, next.SessionsToday)
	return next
}

// SessionPoints is the resilience award for one session.
func SessionPoints(durationMinutes, sessionsToday int) int {
	return basePointsPerSession + durationMinutes*pointsPerMinute + sessionsToday*pointsPerSessionsToday
}

func nextStreak(previous models.ProgressionState, today models.Date) int {
	switch {
	case previous.LastActivityDate == today:
		return previous.CurrentStreak
	case previous.LastActivityDate.IsZero():
		return 1
	case previous.LastActivityDate == today.AddDays(-1):
		return previous.CurrentStreak + 1
	default:
		return 1
	}
}

func sessionMinutes(session models.CompletedSession) int {
	if session.DurationSeconds <= 0 {
		return 0
	}
	return session.DurationSeconds / 60
}
