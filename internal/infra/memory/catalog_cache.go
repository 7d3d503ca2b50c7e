package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-gateway/internal/domain"
)

// CatalogSource is the upstream the cache sits in front of (the REST client
// in production).
type CatalogSource interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	Questions(ctx context.Context, quizID int64) ([]domain.Question, error)
	SubmitAnswers(ctx context.Context, records []domain.AnswerRecord) (domain.ScoreSummary, error)
	Result(ctx context.Context, userID, quizID int64) (domain.ScoreSummary, error)
}

// CatalogCache caches catalog reads with TTL to avoid hammering the upstream
// on every screen. Submissions and result lookups pass straight through.
type CatalogCache struct {
	src   CatalogSource
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func NewCatalogCache(src CatalogSource, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		src:     src,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cacheEntry),
	}
}

func (c *CatalogCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	value, err := c.getOrLoad("quizzes", func() (interface{}, error) {
		return c.src.ListQuizzes(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.Quiz), nil
}

func (c *CatalogCache) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	value, err := c.getOrLoad(fmt.Sprintf("quiz:%d", quizID), func() (interface{}, error) {
		return c.src.GetQuiz(ctx, quizID)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return value.(domain.Quiz), nil
}

func (c *CatalogCache) Questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	value, err := c.getOrLoad(fmt.Sprintf("questions:%d", quizID), func() (interface{}, error) {
		return c.src.Questions(ctx, quizID)
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.Question), nil
}

func (c *CatalogCache) SubmitAnswers(ctx context.Context, records []domain.AnswerRecord) (domain.ScoreSummary, error) {
	return c.src.SubmitAnswers(ctx, records)
}

func (c *CatalogCache) Result(ctx context.Context, userID, quizID int64) (domain.ScoreSummary, error) {
	return c.src.Result(ctx, userID, quizID)
}

func (c *CatalogCache) getOrLoad(key string, load func() (interface{}, error)) (interface{}, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.value, nil
	}
	c.mu.RUnlock()

	value, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.entries[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.value, nil
		}
		c.mu.RUnlock()

		value, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{value: value, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
