package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

var fixedNow = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

// fakeBank serves questions from a map so tests can retire questions mid-session.
type fakeBank struct {
	mu        sync.Mutex
	questions map[int64]domain.Question
}

func newFakeBank(questions []domain.Question) *fakeBank {
	b := &fakeBank{questions: make(map[int64]domain.Question, len(questions))}
	for _, q := range questions {
		b.questions[q.ID] = q
	}
	return b
}

func (b *fakeBank) ActiveQuestionIDs(context.Context) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.questions))
	for id := range b.questions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (b *fakeBank) Question(_ context.Context, id int64) (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (b *fakeBank) retire(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.questions, id)
}

// failingRecorder rejects every attempt.
type failingRecorder struct{}

func (failingRecorder) RecordAttempt(context.Context, domain.User, domain.QuizAttempt) (domain.UserProfile, error) {
	return domain.UserProfile{}, errors.New("database unavailable")
}

type harness struct {
	bank     *fakeBank
	store    *memory.Store
	sessions *memory.SessionStore
	ranking  *app.RankingService
	engine   *app.QuizEngine
	service  *app.QuizService
}

func newHarness(questions []domain.Question, opts ...app.EngineOption) *harness {
	h := &harness{
		bank:     newFakeBank(questions),
		store:    memory.NewStore(memory.DefaultBadges()),
		sessions: memory.NewSessionStore(),
	}
	h.ranking = app.NewRankingService(h.store, app.DefaultWeeklyWindow)
	opts = append([]app.EngineOption{app.WithRand(rand.New(rand.NewSource(1))), app.WithClock(func() time.Time { return fixedNow })}, opts...)
	h.engine = app.NewQuizEngine(h.bank, h.store, app.NewBadgeEvaluator(h.store, app.WithAwardClock(func() time.Time { return fixedNow })), h.ranking, opts...)
	h.service = app.NewQuizService(h.sessions, h.engine)
	return h
}

// correctAnswer follows the fixture convention: answer id = question id * 10 + 2.
func correctAnswer(questionID int64) int64 {
	return questionID*10 + 2
}

func wrongAnswer(questionID int64) int64 {
	return questionID * 10
}

func makeQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		id := int64(i)
		answers := make([]domain.Answer, domain.AnswersPerQuestion)
		for j := range answers {
			answers[j] = domain.Answer{ID: id*10 + int64(j), Text: "option", Correct: j == 2}
		}
		questions = append(questions, domain.Question{ID: id, CategoryID: 1 + id%3, Text: "question", Points: 10, Active: true, Answers: answers})
	}
	return questions
}

func record(t *testing.T, store *memory.Store, userID string, score int, at time.Time) {
	t.Helper()
	attempt := domain.QuizAttempt{ID: userID + at.String(), UserID: userID, Score: score, CorrectAnswers: 1, TotalQuestions: 1, CompletedAt: at}
	if _, err := store.RecordAttempt(context.Background(), domain.User{ID: userID, Username: userID}, attempt); err != nil {
		t.Fatalf("record attempt for %s: %v", userID, err)
	}
}

// gatedSessions parks the next Advance call until release is closed,
// letting a test interleave two requests for the same user.
type gatedSessions struct {
	*memory.SessionStore

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedSessions() *gatedSessions {
	return &gatedSessions{
		SessionStore: memory.NewSessionStore(),
		armed:        true,
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (g *gatedSessions) Advance(ctx context.Context, prev, next domain.SessionState) error {
	g.mu.Lock()
	armed := g.armed
	g.armed = false
	g.mu.Unlock()
	if armed {
		close(g.entered)
		<-g.release
	}
	return g.SessionStore.Advance(ctx, prev, next)
}
