package memory

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/metrics"
)

// QuestionLoader fetches the question set from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Snapshot is an indexed, validated view of the active question set.
type Snapshot struct {
	questions map[int64]domain.Question
	activeIDs []int64
	stats     domain.BankStats
}

// NewSnapshot indexes active questions and drops malformed ones.
func NewSnapshot(questions []domain.Question) *Snapshot {
	s := &Snapshot{questions: make(map[int64]domain.Question, len(questions))}
	categories := make(map[int64]struct{})
	for _, q := range questions {
		s.stats.TotalQuestions++
		categories[q.CategoryID] = struct{}{}
		if !q.Active {
			continue
		}
		if err := q.Validate(); err != nil {
			s.stats.Malformed++
			log.Printf("skipping question: %v", err)
			continue
		}
		if _, dup := s.questions[q.ID]; dup {
			continue
		}
		s.questions[q.ID] = q
		s.activeIDs = append(s.activeIDs, q.ID)
	}
	sort.Slice(s.activeIDs, func(i, j int) bool { return s.activeIDs[i] < s.activeIDs[j] })
	s.stats.ActiveQuestions = len(s.activeIDs)
	s.stats.Categories = len(categories)
	return s
}

// ActiveIDs returns a copy of the active question IDs in ascending order.
func (s *Snapshot) ActiveIDs() []int64 {
	out := make([]int64, len(s.activeIDs))
	copy(out, s.activeIDs)
	return out
}

func (s *Snapshot) Question(id int64) (domain.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Snapshot) Stats() domain.BankStats {
	return s.stats
}

// QuestionBank caches the question set with TTL to avoid repeated DB hits.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	rnd       *rand.Rand
	snapshot  *Snapshot
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
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

func (b *QuestionBank) cached(now time.Time) (*Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.snapshot != nil && b.expiresAt.After(now) {
		return b.snapshot, true
	}
	return nil, false
}

func (b *QuestionBank) load(ctx context.Context) (*Snapshot, error) {
	if snap, ok := b.cached(b.clock()); ok {
		return snap, nil
	}

	result, err, _ := b.sf.Do("questions", func() (interface{}, error) {
		now := b.clock()
		if snap, ok := b.cached(now); ok {
			return snap, nil
		}

		questions, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		metrics.QuestionBankLoads.WithLabelValues("memory").Inc()
		snap := NewSnapshot(questions)

		b.mu.Lock()
		b.snapshot = snap
		b.expiresAt = now.Add(b.ttlWithJitter())
		b.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

// StaticQuestionLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}

// ttlWithJitter must be called with b.mu held.
func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
