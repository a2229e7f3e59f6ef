package app

import (
	"github.com/Chavan-Kartik/EthicsCardGame/internal/scoring"
)

// QuestionResult is one per-question line of a completed game's summary.
type QuestionResult struct {
	Question    int          `json:"question"`
	Answer      string       `json:"answer"`
	Score       float64      `json:"score"`
	Label       string       `json:"label"`
	Tier        scoring.Tier `json:"tier"`
	Explanation string       `json:"explanation"`
}

// Summary aggregates a session's recorded answers. Average is the exact
// arithmetic mean over totalQuestions; rounding for display is up to clients.
type Summary struct {
	Period       string           `json:"period"`
	PerQuestion  []QuestionResult `json:"perQuestion"`
	Average      float64          `json:"average"`
	AverageLabel string           `json:"averageLabel"`
	AverageTier  scoring.Tier     `json:"averageTier"`
}

// Summarize derives the ordered per-question results and the aggregate score.
// Each entry is classified from its own raw score; the aggregate label comes
// from classifying the average. With no recorded scores the average is 0.
func (s *GameSession) Summarize() Summary {
	snap := s.Snapshot()

	results := make([]QuestionResult, 0, len(snap.Scores))
	sum := 0.0
	for i, score := range snap.Scores {
		rating := scoring.Classify(score)
		results = append(results, QuestionResult{
			Question:    i + 1,
			Answer:      snap.Answers[i],
			Score:       score,
			Label:       rating.Label,
			Tier:        rating.Tier,
			Explanation: snap.Explanations[i],
		})
		sum += score
	}

	average := 0.0
	if len(snap.Scores) > 0 {
		average = sum / float64(snap.TotalQuestions)
	}
	avgRating := scoring.Classify(average)

	return Summary{
		Period:       snap.Period,
		PerQuestion:  results,
		Average:      average,
		AverageLabel: avgRating.Label,
		AverageTier:  avgRating.Tier,
	}
}
