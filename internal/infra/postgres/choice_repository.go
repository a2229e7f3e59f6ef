package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/scoring"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ChoiceRepository stores submitted choices and derives the per-user game
// history from them.
type ChoiceRepository struct {
	pool *pgxpool.Pool
	// questionsPerGame controls how stored choices are chunked into games.
	questionsPerGame int
}

func NewChoiceRepository(pool *pgxpool.Pool, questionsPerGame int) *ChoiceRepository {
	if questionsPerGame < 1 {
		questionsPerGame = 5
	}
	return &ChoiceRepository{pool: pool, questionsPerGame: questionsPerGame}
}

// RecordChoice appends one submitted choice. The stored score is derived from
// the answer letter alone (A best .. D worst); gameplay never reads it back,
// it only feeds the history aggregation.
func (r *ChoiceRepository) RecordChoice(ctx context.Context, username string, sub domain.ChoiceSubmission) error {
	score := scoring.LetterScore(sub.SelectedAnswer)
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO choices (user_id, period, question, selected_answer, score, created_at)
		 SELECT id, $2, $3, $4, $5, now() FROM users WHERE username=$1`,
		username, sub.Period, sub.Question, sub.SelectedAnswer, score)
	if err != nil {
		return fmt.Errorf("record choice: %w", err)
	}
	// Zero rows means the username matched nobody and the submission would
	// vanish silently.
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record choice for %q: %w", username, domain.ErrUserNotFound)
	}
	return nil
}

// StoredChoice is one persisted submission row.
type StoredChoice struct {
	Period    string
	Score     float64
	CreatedAt time.Time
}

// History returns the user's completed games, oldest first.
func (r *ChoiceRepository) History(ctx context.Context, username string) ([]domain.HistoryGame, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.period, c.score, c.created_at
		 FROM choices c JOIN users u ON u.id = c.user_id
		 WHERE u.username=$1
		 ORDER BY c.created_at, c.id`,
		username)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var choices []StoredChoice
	for rows.Next() {
		var c StoredChoice
		if err := rows.Scan(&c.Period, &c.Score, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate choices: %w", err)
	}
	return GroupGames(choices, r.questionsPerGame), nil
}

// GroupGames chunks the ordered choice log into completed games of perGame
// answers each. A trailing partial chunk is an unfinished game and is dropped.
// The game's period collapses to "Multiple" when its choices span periods, and
// its timestamp is that of the final answer.
func GroupGames(choices []StoredChoice, perGame int) []domain.HistoryGame {
	if perGame < 1 {
		perGame = 5
	}
	games := make([]domain.HistoryGame, 0, len(choices)/perGame)
	for i := 0; i+perGame <= len(choices); i += perGame {
		chunk := choices[i : i+perGame]
		total := 0.0
		period := chunk[0].Period
		for _, c := range chunk {
			total += c.Score
			if c.Period != period {
				period = "Multiple"
			}
		}
		games = append(games, domain.HistoryGame{
			Period:     period,
			TotalScore: total,
			Timestamp:  chunk[len(chunk)-1].CreatedAt,
		})
	}
	return games
}

