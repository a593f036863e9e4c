package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CBTExerciseType string

const (
	CBTNone                  CBTExerciseType = "none"
	CBTThoughtRecord         CBTExerciseType = "thought_record"
	CBTGratitudeJournaling   CBTExerciseType = "gratitude_journaling"
	CBTBehavioralActivation  CBTExerciseType = "behavioral_activation"
	CBTProblemSolving        CBTExerciseType = "problem_solving"
	CBTMindfulnessReflection CBTExerciseType = "mindfulness_reflection"
)

type EmotionIntensity struct {
	Emotion   string `bson:"emotion" json:"emotion" validate:"required"`
	Intensity int    `bson:"intensity" json:"intensity" validate:"min=1,max=10"`
}

// CheckInEntry is a historical journal check-in used for analytics.
type CheckInEntry struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                string             `bson:"user_id" json:"user_id"`
	OverallMood           string             `bson:"overall_mood" json:"overall_mood" validate:"required"`
	MoodIntensity         int                `bson:"mood_intensity" json:"mood_intensity" validate:"min=1,max=10"`
	PrimaryEmotions       []EmotionIntensity `bson:"primary_emotions" json:"primary_emotions" validate:"dive"`
	CBTExerciseType       CBTExerciseType    `bson:"cbt_exercise_type" json:"cbt_exercise_type" validate:"omitempty,oneof=none thought_record gratitude_journaling behavioral_activation problem_solving mindfulness_reflection"`
	SelfCareActivities    []string           `bson:"self_care_activities" json:"self_care_activities"`
	SignificantActivities []string           `bson:"significant_activities" json:"significant_activities"`
	Timestamp             time.Time          `bson:"timestamp" json:"timestamp"`
}
