package memory

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"checkpoint-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionSetLoader fetches question sets from a backing store (CSV presets, Postgres, uploads).
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionSetRepository caches question sets with TTL to avoid repeated loads.
type QuestionSetRepository struct {
	loader QuestionSetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionSetRepository(loader QuestionSetLoader, ttl time.Duration) *QuestionSetRepository {
	return &QuestionSetRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionSetRepository) GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[setID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.set, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(setID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[setID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.set, nil
		}
		r.mu.RUnlock()

		set, err := r.loader.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		expiresAt := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[setID] = cachedSet{
			set:       set,
			expiresAt: expiresAt,
		}
		r.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *QuestionSetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticLoader is a loader backed by an in-memory map. It also stores uploaded sets.
type StaticLoader struct {
	mu   sync.RWMutex
	sets map[string]domain.QuestionSet
}

func NewStaticLoader(sets map[string]domain.QuestionSet) *StaticLoader {
	copied := make(map[string]domain.QuestionSet, len(sets))
	for id, set := range sets {
		copied[id] = set
	}
	return &StaticLoader{sets: copied}
}

func (l *StaticLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if set, ok := l.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

func (l *StaticLoader) SaveQuestionSet(_ context.Context, set domain.QuestionSet) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sets[set.ID] = set
	return nil
}

// ListQuestionSets returns summaries ordered by id.
func (l *StaticLoader) ListQuestionSets(_ context.Context) ([]domain.QuestionSetSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.QuestionSetSummary, 0, len(l.sets))
	for _, set := range l.sets {
		out = append(out, domain.QuestionSetSummary{ID: set.ID, Name: set.Name, Count: len(set.Questions)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FallbackLoader asks each loader in turn until one knows the set.
type FallbackLoader []QuestionSetLoader

func (f FallbackLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	for _, loader := range f {
		set, err := loader.LoadQuestionSet(ctx, setID)
		if err == nil {
			return set, nil
		}
		if !errors.Is(err, domain.ErrQuestionSetNotFound) {
			return domain.QuestionSet{}, err
		}
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

// QuestionSetLister lists the sets a source can serve.
type QuestionSetLister interface {
	ListQuestionSets(ctx context.Context) ([]domain.QuestionSetSummary, error)
}

// MergedLister combines listings, keeping the first summary seen for an id, ordered by id.
type MergedLister []QuestionSetLister

func (m MergedLister) ListQuestionSets(ctx context.Context) ([]domain.QuestionSetSummary, error) {
	seen := make(map[string]struct{})
	var out []domain.QuestionSetSummary
	for _, lister := range m {
		sets, err := lister.ListQuestionSets(ctx)
		if err != nil {
			return nil, err
		}
		for _, set := range sets {
			if _, dup := seen[set.ID]; dup {
				continue
			}
			seen[set.ID] = struct{}{}
			out = append(out, set)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
