package postgres

import (
	"testing"
	"time"
)

func TestGroupGamesChunksAndSums(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var choices []StoredChoice
	scores := []float64{100, 75, 50, 10, 0 /* game 1 */, 100, 100, 100, 100, 100 /* game 2 */, 75, 75 /* unfinished */}
	for i, s := range scores {
		choices = append(choices, StoredChoice{
			Period:    "Medieval Era",
			Score:     s,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	games := GroupGames(choices, 5)
	if len(games) != 2 {
		t.Fatalf("expected 2 completed games, got %d", len(games))
	}
	if games[0].TotalScore != 235 {
		t.Fatalf("expected game 1 total 235, got %v", games[0].TotalScore)
	}
	if games[1].TotalScore != 500 {
		t.Fatalf("expected game 2 total 500, got %v", games[1].TotalScore)
	}
	if !games[0].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("expected game timestamp from its last answer, got %v", games[0].Timestamp)
	}
}

func TestGroupGamesMixedPeriods(t *testing.T) {
	var choices []StoredChoice
	for i := 0; i < 5; i++ {
		period := "Medieval Era"
		if i == 3 {
			period = "Modern Era"
		}
		choices = append(choices, StoredChoice{Period: period, Score: 50})
	}
	games := GroupGames(choices, 5)
	if len(games) != 1 || games[0].Period != "Multiple" {
		t.Fatalf("expected mixed-period game labeled Multiple, got %+v", games)
	}
}

