package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DilemmaLoader loads a period's question bank from JSONB in Postgres.
type DilemmaLoader struct {
	pool *pgxpool.Pool
}

func NewDilemmaLoader(pool *pgxpool.Pool) *DilemmaLoader {
	return &DilemmaLoader{pool: pool}
}

func (l *DilemmaLoader) LoadPeriod(ctx context.Context, period string) (domain.DilemmaSet, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM dilemmas WHERE period=$1`, period).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DilemmaSet{}, domain.ErrDilemmaNotFound
	}
	if err != nil {
		return domain.DilemmaSet{}, fmt.Errorf("load dilemmas: %w", err)
	}
	var set domain.DilemmaSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.DilemmaSet{}, fmt.Errorf("unmarshal dilemmas: %w", err)
	}
	if set.Period == "" {
		set.Period = period
	}
	return set, nil
}
