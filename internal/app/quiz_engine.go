package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/metrics"
)

// DefaultPoolSize is the number of questions drawn for a quiz.
const DefaultPoolSize = 20

// QuestionBank serves the active question set (from cache/backing store).
type QuestionBank interface {
	ActiveQuestionIDs(ctx context.Context) ([]int64, error)
	// Question returns domain.ErrQuestionNotFound for unknown or deactivated questions.
	Question(ctx context.Context, id int64) (domain.Question, error)
}

// AttemptRecorder persists completed attempts.
type AttemptRecorder interface {
	// RecordAttempt stores the attempt and applies it to the user's profile
	// (creating it if needed) as one atomic unit.
	RecordAttempt(ctx context.Context, user domain.User, attempt domain.QuizAttempt) (domain.UserProfile, error)
}

// QuizEngine drives a SessionState through start, answers and completion.
type QuizEngine struct {
	bank     QuestionBank
	attempts AttemptRecorder
	badges   *BadgeEvaluator
	ranking  *RankingService
	poolSize int
	now      func() time.Time
	newID    func() string

	mu  sync.Mutex
	rnd *rand.Rand
}

// EngineOption customizes a QuizEngine.
type EngineOption func(*QuizEngine)

// WithPoolSize overrides the number of questions per quiz.
func WithPoolSize(n int) EngineOption {
	return func(e *QuizEngine) {
		if n > 0 {
			e.poolSize = n
		}
	}
}

// WithRand makes question selection reproducible.
func WithRand(rnd *rand.Rand) EngineOption {
	return func(e *QuizEngine) { e.rnd = rnd }
}

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *QuizEngine) { e.now = now }
}

func NewQuizEngine(bank QuestionBank, attempts AttemptRecorder, badges *BadgeEvaluator, ranking *RankingService, opts ...EngineOption) *QuizEngine {
	e := &QuizEngine{
		bank:     bank,
		attempts: attempts,
		badges:   badges,
		ranking:  ranking,
		poolSize: DefaultPoolSize,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start draws a fresh question set for the user.
func (e *QuizEngine) Start(ctx context.Context, user domain.User) (domain.SessionState, error) {
	ids, err := e.bank.ActiveQuestionIDs(ctx)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load active questions: %w", err)
	}

	e.mu.Lock()
	selected := sampleQuestionIDs(e.rnd, ids, e.poolSize)
	e.mu.Unlock()

	if len(selected) == 0 {
		return domain.SessionState{}, domain.ErrNoQuestionsAvailable
	}

	metrics.SessionsStarted.Inc()
	return domain.SessionState{
		UserID:      user.ID,
		Username:    user.Username,
		QuestionIDs: selected,
		StartedAt:   e.now(),
	}, nil
}

// CurrentQuestion returns the question the user has to answer next.
func (e *QuizEngine) CurrentQuestion(ctx context.Context, state domain.SessionState) (domain.QuestionView, error) {
	question, err := e.currentQuestion(ctx, state)
	if err != nil {
		return domain.QuestionView{}, err
	}
	return question.View(state), nil
}

func (e *QuizEngine) currentQuestion(ctx context.Context, state domain.SessionState) (domain.Question, error) {
	if state.Finished() {
		return domain.Question{}, domain.ErrSessionFinished
	}
	question, err := e.bank.Question(ctx, state.QuestionIDs[state.Index])
	if errors.Is(err, domain.ErrQuestionNotFound) {
		return domain.Question{}, domain.ErrStaleSession
	}
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// SubmitAnswer applies an answer to the current question. Answers that do not
// belong to the current question leave the state untouched and are reported
// with Accepted=false.
func (e *QuizEngine) SubmitAnswer(ctx context.Context, state domain.SessionState, answerID int64) (domain.SessionState, domain.AnswerOutcome, error) {
	question, err := e.currentQuestion(ctx, state)
	if err != nil {
		return state, domain.AnswerOutcome{Score: state.Score, Finished: state.Finished()}, err
	}

	next, correct, err := advance(state, question, answerID)
	if err != nil {
		metrics.AnswersSubmitted.WithLabelValues(metrics.ResultIgnored).Inc()
		return state, domain.AnswerOutcome{Score: state.Score}, nil
	}

	outcome := domain.AnswerOutcome{
		Accepted: true,
		Correct:  correct,
		Score:    next.Score,
		Finished: next.Finished(),
	}
	if correct {
		outcome.Awarded = question.PointValue()
		metrics.AnswersSubmitted.WithLabelValues(metrics.ResultCorrect).Inc()
	} else {
		metrics.AnswersSubmitted.WithLabelValues(metrics.ResultIncorrect).Inc()
	}
	return next, outcome, nil
}

// advance is the session transition: score the answer and move one question forward.
func advance(state domain.SessionState, question domain.Question, answerID int64) (domain.SessionState, bool, error) {
	answer, ok := question.Answer(answerID)
	if !ok {
		return state, false, domain.ErrInvalidAnswer
	}
	next := state
	if answer.Correct {
		next.Score += question.PointValue()
		next.Correct++
	}
	next.Index++
	return next, answer.Correct, nil
}

// Complete persists the attempt of a finished session and evaluates badges and rank.
func (e *QuizEngine) Complete(ctx context.Context, state domain.SessionState) (domain.QuizResult, error) {
	if state.Total() == 0 {
		return domain.QuizResult{}, domain.ErrSessionNotFound
	}
	if !state.Finished() {
		return domain.QuizResult{}, domain.ErrSessionNotComplete
	}

	attempt := domain.QuizAttempt{
		ID:             e.newID(),
		UserID:         state.UserID,
		Score:          state.Score,
		CorrectAnswers: state.Correct,
		TotalQuestions: state.Total(),
		CompletedAt:    e.now(),
	}
	profile, err := e.attempts.RecordAttempt(ctx, domain.User{ID: state.UserID, Username: state.Username}, attempt)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("record attempt: %w", err)
	}
	metrics.AttemptsCompleted.Inc()
	metrics.AttemptScore.Observe(float64(attempt.Score))

	// The attempt is stored at this point; badge and rank failures only degrade the result.
	newBadges, err := e.badges.Evaluate(ctx, state.UserID, profile)
	if err != nil {
		log.Printf("evaluate badges for %s: %v", state.UserID, err)
	}
	if newBadges == nil {
		newBadges = []domain.Badge{}
	}
	rank, err := e.ranking.AllTimeRank(ctx, state.UserID)
	if err != nil {
		log.Printf("rank for %s: %v", state.UserID, err)
	}

	return domain.QuizResult{
		Attempt:    attempt,
		Profile:    profile,
		Rank:       rank,
		Percentage: attempt.Percentage(),
		NewBadges:  newBadges,
	}, nil
}
