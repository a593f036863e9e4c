package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MentalState is the risk classification derived from a check-in score.
// Values are ordered by severity.
type MentalState int

const (
	Stable MentalState = iota
	MildStress
	HighStress
	BurnoutRisk
)

var mentalStateKeys = map[MentalState]string{
	Stable:      "stable",
	MildStress:  "mild_stress",
	HighStress:  "high_stress",
	BurnoutRisk: "burnout_risk",
}

var mentalStateLabels = map[MentalState]string{
	Stable:      "Stable",
	MildStress:  "Mild Stress",
	HighStress:  "High Stress",
	BurnoutRisk: "Burnout Risk",
}

// Label is the human-readable name shown to users.
func (s MentalState) Label() string {
	if l, ok := mentalStateLabels[s]; ok {
		return l
	}
	return "Unknown"
}

func (s MentalState) String() string {
	if k, ok := mentalStateKeys[s]; ok {
		return k
	}
	return fmt.Sprintf("mental_state(%d)", int(s))
}

func (s MentalState) MarshalText() ([]byte, error) {
	k, ok := mentalStateKeys[s]
	if !ok {
		return nil, fmt.Errorf("unknown mental state %d", int(s))
	}
	return []byte(k), nil
}

func (s *MentalState) UnmarshalText(text []byte) error {
	for state, key := range mentalStateKeys {
		if key == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown mental state %q", string(text))
}

// CheckInResult is the outcome of classifying one daily check-in.
type CheckInResult struct {
	Score           int         `bson:"score" json:"score"` // 0-100, higher = more risk
	State           MentalState `bson:"state" json:"state"`
	Insight         string      `bson:"insight" json:"insight"`
	TimestampMillis int64       `bson:"timestamp_millis" json:"timestamp_millis"`
}

// StoredCheckInResult is a CheckInResult persisted for a user.
type StoredCheckInResult struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	CheckInResult `bson:",inline"`
	Date          Date               `bson:"date" json:"date"`
	StateLabel    string             `bson:"state_label" json:"state_label"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
