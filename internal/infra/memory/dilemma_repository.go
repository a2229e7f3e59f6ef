package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DilemmaLoader fetches a period's question bank from a backing store.
type DilemmaLoader interface {
	LoadPeriod(ctx context.Context, period string) (domain.DilemmaSet, error)
}

// DilemmaRepository caches period banks with TTL to avoid repeated store hits
// and serves one dilemma per call, picked from the cached bank.
type DilemmaRepository struct {
	loader DilemmaLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.DilemmaSet
	expiresAt time.Time
}

func NewDilemmaRepository(loader DilemmaLoader, ttl time.Duration) *DilemmaRepository {
	return &DilemmaRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

// GetDilemma returns one dilemma for the period. An empty period never reaches
// the loader.
func (r *DilemmaRepository) GetDilemma(ctx context.Context, period string) (domain.Dilemma, error) {
	if period == "" {
		return domain.Dilemma{}, domain.ErrPeriodRequired
	}
	set, err := r.getSet(ctx, period)
	if err != nil {
		return domain.Dilemma{}, err
	}
	return r.pick(set)
}

func (r *DilemmaRepository) getSet(ctx context.Context, period string) (domain.DilemmaSet, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[period]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.set, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(period, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[period]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.set, nil
		}
		r.mu.RUnlock()

		set, err := r.loader.LoadPeriod(ctx, period)
		if err != nil {
			return domain.DilemmaSet{}, err
		}

		r.mu.Lock()
		r.cache[period] = cachedSet{
			set:       set,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.DilemmaSet{}, err
	}
	return result.(domain.DilemmaSet), nil
}

func (r *DilemmaRepository) pick(set domain.DilemmaSet) (domain.Dilemma, error) {
	if len(set.Dilemmas) == 0 {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	r.mu.Lock()
	idx := r.rnd.Intn(len(set.Dilemmas))
	r.mu.Unlock()
	return set.Dilemmas[idx], nil
}

func (r *DilemmaRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticDilemmaLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticDilemmaLoader struct {
	sets map[string]domain.DilemmaSet
}

func NewStaticDilemmaLoader(sets map[string]domain.DilemmaSet) *StaticDilemmaLoader {
	return &StaticDilemmaLoader{sets: sets}
}

func (l *StaticDilemmaLoader) LoadPeriod(_ context.Context, period string) (domain.DilemmaSet, error) {
	if set, ok := l.sets[period]; ok {
		return set, nil
	}
	return domain.DilemmaSet{}, domain.ErrDilemmaNotFound
}
