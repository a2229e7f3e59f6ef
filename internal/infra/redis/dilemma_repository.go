package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DilemmaLoader fetches a period's question bank from a backing store.
type DilemmaLoader interface {
	LoadPeriod(ctx context.Context, period string) (domain.DilemmaSet, error)
}

// DilemmaRepository caches period banks in Redis as a JSON value per period
// (key dilemmas:{period}) and falls back to a loader on cache miss.
type DilemmaRepository struct {
	client *redis.Client
	loader DilemmaLoader
	ttl    time.Duration
	sf     singleflight.Group

	// rndMu guards rnd; the repository is shared across connections.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewDilemmaRepository(client *redis.Client, loader DilemmaLoader, ttl time.Duration) *DilemmaRepository {
	return &DilemmaRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetDilemma returns one dilemma for the period, picked from the cached bank.
func (r *DilemmaRepository) GetDilemma(ctx context.Context, period string) (domain.Dilemma, error) {
	if period == "" {
		return domain.Dilemma{}, domain.ErrPeriodRequired
	}

	key := r.key(period)
	if set, ok := r.cached(ctx, key); ok {
		return r.pick(set)
	}

	result, err, _ := r.sf.Do(period, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := r.cached(ctx, key); ok {
			return set, nil
		}

		set, err := r.loader.LoadPeriod(ctx, period)
		if err != nil {
			return domain.DilemmaSet{}, err
		}

		if raw, err := json.Marshal(set); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return domain.Dilemma{}, err
	}
	return r.pick(result.(domain.DilemmaSet))
}

func (r *DilemmaRepository) cached(ctx context.Context, key string) (domain.DilemmaSet, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.DilemmaSet{}, false
	}
	var set domain.DilemmaSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.DilemmaSet{}, false
	}
	return set, len(set.Dilemmas) > 0
}

func (r *DilemmaRepository) pick(set domain.DilemmaSet) (domain.Dilemma, error) {
	if len(set.Dilemmas) == 0 {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	r.rndMu.Lock()
	idx := r.rnd.Intn(len(set.Dilemmas))
	r.rndMu.Unlock()
	return set.Dilemmas[idx], nil
}

func (r *DilemmaRepository) key(period string) string {
	return "dilemmas:" + period
}

func (r *DilemmaRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
