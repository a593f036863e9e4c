package services

import (
	"sort"

	"github.com/Alidon256/Mindset-Pulse-sub000/models"
)

const topEmotionLimit = 5

// intensityGroup accumulates a count and intensity sum for one key,
// remembering the order in which keys first appeared.
type intensityGroup struct {
	key   string
	count int
	sum   int
}

type groupTally struct {
	index  map[string]int
	groups []intensityGroup
}

func newGroupTally() *groupTally {
	return &groupTally{index: make(map[string]int)}
}

func (t *groupTally) add(key string, intensity int) {
	i, ok := t.index[key]
	if !ok {
		i = len(t.groups)
		t.index[key] = i
		t.groups = append(t.groups, intensityGroup{key: key})
	}
	t.groups[i].count++
	t.groups[i].sum += intensity
}

// sorted returns groups by count descending; ties keep first-appearance order.
func (t *groupTally) sorted() []intensityGroup {
	out := make([]intensityGroup, len(t.groups))
	copy(out, t.groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

func (g intensityGroup) average() float64 {
	if g.count == 0 {
		return 0
	}
	return float64(g.sum) / float64(g.count)
}

// SummarizeCheckIns reduces a batch of journal entries into distribution summaries.
// It never fails; an empty batch yields an empty summary.
func SummarizeCheckIns(entries []models.CheckInEntry) models.AnalyticsSummary {
	summary := models.AnalyticsSummary{
		TotalCheckIns:                len(entries),
		OverallMoodDistribution:      []models.MoodCount{},
		MostFrequentEmotions:         []models.EmotionCount{},
		CBTExerciseUsage:             []models.CBTUsage{},
		SelfCareActivityFrequency:    map[string]int{},
		SignificantActivityFrequency: map[string]int{},
	}
	if len(entries) == 0 {
		return summary
	}

	moods := newGroupTally()
	emotions := newGroupTally()
	cbt := newGroupTally()
	intensityTotal := 0

	for _, e := range entries {
		moods.add(e.OverallMood, e.MoodIntensity)
		intensityTotal += e.MoodIntensity

		for _, em := range e.PrimaryEmotions {
			emotions.add(em.Emotion, em.Intensity)
		}

		exercise := e.CBTExerciseType
		if exercise == "" {
			exercise = models.CBTNone
		}
		cbt.add(string(exercise), 0)

		for _, a := range e.SelfCareActivities {
			summary.SelfCareActivityFrequency[a]++
		}
		for _, a := range e.SignificantActivities {
			summary.SignificantActivityFrequency[a]++
		}
	}

	for _, g := range moods.sorted() {
		summary.OverallMoodDistribution = append(summary.OverallMoodDistribution, models.MoodCount{
			Mood:             g.key,
			Count:            g.count,
			AverageIntensity: g.average(),
		})
	}

	for _, g := range emotions.sorted() {
		if len(summary.MostFrequentEmotions) == topEmotionLimit {
			break
		}
		summary.MostFrequentEmotions = append(summary.MostFrequentEmotions, models.EmotionCount{
			Emotion:          g.key,
			Count:            g.count,
			AverageIntensity: g.average(),
		})
	}

	for _, g := range cbt.sorted() {
		if models.CBTExerciseType(g.key) == models.CBTNone {
			continue
		}
		summary.CBTExerciseUsage = append(summary.CBTExerciseUsage, models.CBTUsage{
			ExerciseType: models.CBTExerciseType(g.key),
			Count:        g.count,
		})
	}

	summary.AverageMoodIntensity = float64(intensityTotal) / float64(len(entries))
	return summary
}
