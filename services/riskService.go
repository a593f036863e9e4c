package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/Alidon256/Mindset-Pulse-sub000/models"
)

// ErrInvalidInput is returned for malformed check-in arguments. It is a caller
// contract violation; handlers validate payloads before classifying.
var ErrInvalidInput = errors.New("invalid input")

const (
	minAnswer    = 1
	maxAnswer    = 5
	minSentiment = -1.0
	maxSentiment = 1.0
)

var (
	weightAnswers   = 0.6
	weightSentiment = 0.4
)

// Lower bounds of each mental state on the 0-100 risk scale.
//
//	Stable       0-24
//	MildStress  25-49
//	HighStress  50-74
//	BurnoutRisk 75-100
const (
	mildStressThreshold  = 25
	highStressThreshold  = 50
	burnoutRiskThreshold = 75
)

// -------- Risk classification --------

// RiskScore = 100 * (0.6 * answerRisk + 0.4 * sentimentRisk)
// answerRisk    = (mean(answers) - 1) / 4   (1 = most positive, 5 = most negative)
// sentimentRisk = (1 - sentiment) / 2       (sentiment +1 = good, so it is inverted)
func ComputeRiskScore(answers []int, sentiment float64) (int, error) {
	if err := validateCheckIn(answers, sentiment); err != nil {
		return 0, err
	}
	sum := 0
	for _, a := range answers {
		sum += a
	}
	mean := float64(sum) / float64(len(answers))
	answerRisk := (mean - minAnswer) / (maxAnswer - minAnswer)
	sentimentRisk := (maxSentiment - sentiment) / (maxSentiment - minSentiment)

	raw := 100 * (weightAnswers*answerRisk + weightSentiment*sentimentRisk)
	return clampScore(int(math.Round(raw))), nil
}

// ClassifyMentalState maps a 0-100 score onto its severity band.
// Out-of-range scores are clamped first.
func ClassifyMentalState(score int) models.MentalState {
	score = clampScore(score)
	switch {
	case score >= burnoutRiskThreshold:
		return models.BurnoutRisk
	case score >= highStressThreshold:
		return models.HighStress
	case score >= mildStressThreshold:
		return models.MildStress
	default:
		return models.Stable
	}
}

// ClassifyCheckIn scores a check-in and attaches the caller's insight and timestamp.
func ClassifyCheckIn(answers []int, sentiment float64, insight string, timestampMillis int64) (models.CheckInResult, error) {
	score, err := ComputeRiskScore(answers, sentiment)
	if err != nil {
		return models.CheckInResult{}, err
	}
	return models.CheckInResult{
		Score:           score,
		State:           ClassifyMentalState(score),
		Insight:         insight,
		TimestampMillis: timestampMillis,
	}, nil
}

func validateCheckIn(answers []int, sentiment float64) error {
	if len(answers) == 0 {
		return fmt.Errorf("%w: answers must not be empty", ErrInvalidInput)
	}
	for i, a := range answers {
		if a < minAnswer || a > maxAnswer {
			return fmt.Errorf("%w: answer %d is %d, want %d-%d", ErrInvalidInput, i, a, minAnswer, maxAnswer)
		}
	}
	if math.IsNaN(sentiment) || sentiment < minSentiment || sentiment > maxSentiment {
		return fmt.Errorf("%w: sentiment %v outside [-1, 1]", ErrInvalidInput, sentiment)
	}
	return nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
