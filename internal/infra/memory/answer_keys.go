package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/domain"
)

// AnswerKeyCache caches per-quiz answer keys with TTL to avoid repeated
// store hits on every submission.
type AnswerKeyCache struct {
	quizzes app.QuizRepository
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedKey
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyCache(quizzes app.QuizRepository, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		quizzes: quizzes,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedKey),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.key, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.key, nil
		}
		c.mu.RUnlock()

		quiz, err := c.quizzes.GetByID(ctx, quizID)
		if err != nil {
			return nil, err
		}
		key := BuildAnswerKey(quiz)

		c.mu.Lock()
		c.cache[quizID] = cachedKey{key: key, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.AnswerKey), nil
}

func (c *AnswerKeyCache) Invalidate(_ context.Context, quizID string) error {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.mu.Unlock()
	return nil
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// BuildAnswerKey extracts the scoring view of a quiz. Expected answers are
// lowercased once here so scoring only lowercases the submitted side.
func BuildAnswerKey(quiz domain.Quiz) domain.AnswerKey {
	key := make(domain.AnswerKey, len(quiz.Questions))
	for _, q := range quiz.Questions {
		key[q.ID] = strings.ToLower(q.Answer)
	}
	return key
}
