package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/infra/postgres"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/scoring"
)

// ChoiceLog records submitted choices in process memory and serves history
// from them. It groups the log into games exactly like the Postgres-backed
// repository does.
type ChoiceLog struct {
	mu               sync.Mutex
	questionsPerGame int
	byUser           map[string][]postgres.StoredChoice
}

func NewChoiceLog(questionsPerGame int) *ChoiceLog {
	if questionsPerGame < 1 {
		questionsPerGame = 5
	}
	return &ChoiceLog{
		questionsPerGame: questionsPerGame,
		byUser:           make(map[string][]postgres.StoredChoice),
	}
}

func (l *ChoiceLog) RecordChoice(_ context.Context, username string, sub domain.ChoiceSubmission) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byUser[username] = append(l.byUser[username], postgres.StoredChoice{
		Period:    sub.Period,
		Score:     scoring.LetterScore(sub.SelectedAnswer),
		CreatedAt: time.Now(),
	})
	return nil
}

func (l *ChoiceLog) History(_ context.Context, username string) ([]domain.HistoryGame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return postgres.GroupGames(l.byUser[username], l.questionsPerGame), nil
}
