package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/metrics"
)

const questionsKey = "quiz:questions"

// QuestionBank caches the question set in Redis and falls back to a loader on cache miss.
// The set is stored as one JSON document: SET quiz:questions [...] EX ttl
type QuestionBank struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu       sync.Mutex
	rnd      *rand.Rand
	lastRaw  string
	lastSnap *memory.Snapshot
}

func NewQuestionBank(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) ActiveQuestionIDs(ctx context.Context) ([]int64, error) {
	snap, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ActiveIDs(), nil
}

func (b *QuestionBank) Question(ctx context.Context, id int64) (domain.Question, error) {
	snap, err := b.load(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	return snap.Question(id)
}

func (b *QuestionBank) Stats(ctx context.Context) (domain.BankStats, error) {
	snap, err := b.load(ctx)
	if err != nil {
		return domain.BankStats{}, err
	}
	return snap.Stats(), nil
}

func (b *QuestionBank) load(ctx context.Context) (*memory.Snapshot, error) {
	raw, err := b.client.Get(ctx, questionsKey).Result()
	if err == nil {
		if snap, ok := b.snapshot(raw); ok {
			return snap, nil
		}
	}

	result, err, _ := b.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := b.client.Get(ctx, questionsKey).Result()
		if err == nil {
			if snap, ok := b.snapshot(raw); ok {
				return snap, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			return nil, err
		}

		questions, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		metrics.QuestionBankLoads.WithLabelValues("redis").Inc()

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		// a non-positive ttl disables caching, as in the memory bank
		if ttl := b.ttlWithJitter(); ttl > 0 {
			_ = b.client.Set(ctx, questionsKey, data, ttl).Err()
		}

		snap, _ := b.snapshot(string(data))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*memory.Snapshot), nil
}

// snapshot decodes a cached document, reusing the last index when unchanged.
func (b *QuestionBank) snapshot(raw string) (*memory.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastSnap != nil && raw == b.lastRaw {
		return b.lastSnap, true
	}
	var questions []domain.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, false
	}
	b.lastRaw = raw
	b.lastSnap = memory.NewSnapshot(questions)
	return b.lastSnap, true
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
