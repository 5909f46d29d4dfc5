package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/domain"
	"animal-quiz-service/internal/infra/memory"
)

// AnswerKeyCache caches per-quiz answer keys in Redis (one hash per quiz)
// and falls back to the quiz repository on cache miss.
// Keys are stored as: HSET quiz:{quizID}:answers {questionID} {answer}
// with answers lowercased for case-insensitive matching.
type AnswerKeyCache struct {
	client  *redis.Client
	quizzes app.QuizRepository
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, quizzes app.QuizRepository, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client:  client,
		quizzes: quizzes,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	key := c.answersKey(quizID)

	// A quiz always has at least one question, so an empty hash means a miss.
	cached, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return domain.AnswerKey(cached), nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the hash.
		cached, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			return domain.AnswerKey(cached), nil
		}

		quiz, err := c.quizzes.GetByID(ctx, quizID)
		if err != nil {
			return nil, err
		}
		answerKey := memory.BuildAnswerKey(quiz)

		pipe := c.client.Pipeline()
		for questionID, answer := range answerKey {
			pipe.HSet(ctx, key, questionID, answer)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return answerKey, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached hash after the quiz changes.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, quizID string) error {
	return c.client.Del(ctx, c.answersKey(quizID)).Err()
}

func (c *AnswerKeyCache) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
