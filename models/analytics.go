package models

type MoodCount struct {
	Mood             string  `json:"mood"`
	Count            int     `json:"count"`
	AverageIntensity float64 `json:"average_intensity"`
}

type EmotionCount struct {
	Emotion          string  `json:"emotion"`
	Count            int     `json:"count"`
	AverageIntensity float64 `json:"average_intensity"`
}

type CBTUsage struct {
	ExerciseType CBTExerciseType `json:"exercise_type"`
	Count        int             `json:"count"`
}

// AnalyticsSummary is recomputed wholesale from a batch of check-in entries.
type AnalyticsSummary struct {
	TotalCheckIns                int            `json:"total_check_ins"`
	OverallMoodDistribution      []MoodCount    `json:"overall_mood_distribution"`
	MostFrequentEmotions         []EmotionCount `json:"most_frequent_emotions"` // top 5
	CBTExerciseUsage             []CBTUsage     `json:"cbt_exercise_usage"`     // excludes none
	AverageMoodIntensity         float64        `json:"average_mood_intensity"`
	SelfCareActivityFrequency    map[string]int `json:"self_care_activity_frequency"`
	SignificantActivityFrequency map[string]int `json:"significant_activity_frequency"`
}
