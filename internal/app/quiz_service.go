package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"trivia-quiz-service/internal/domain"
)

// SessionRepository abstracts how in-progress sessions are stored (in-memory, Redis, etc).
// Sessions are keyed by user ID; a user has at most one.
type SessionRepository interface {
	Get(ctx context.Context, userID string) (domain.SessionState, bool, error)
	Save(ctx context.Context, state domain.SessionState) error
	// Advance stores next only if prev is still the stored session at the same
	// question; otherwise it returns domain.ErrSessionConflict.
	Advance(ctx context.Context, prev, next domain.SessionState) error
	// Take atomically removes and returns the session.
	Take(ctx context.Context, userID string) (domain.SessionState, bool, error)
	Delete(ctx context.Context, userID string) error
}

// QuizService contains the per-user quiz use cases exposed to transports.
type QuizService struct {
	sessions SessionRepository
	engine   *QuizEngine
}

func NewQuizService(store SessionRepository, engine *QuizEngine) *QuizService {
	return &QuizService{sessions: store, engine: engine}
}

// Start discards any previous session and begins a new quiz.
func (s *QuizService) Start(ctx context.Context, user domain.User) (domain.QuestionView, error) {
	if err := s.sessions.Delete(ctx, user.ID); err != nil {
		return domain.QuestionView{}, fmt.Errorf("clear session: %w", err)
	}

	state, err := s.engine.Start(ctx, user)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if err := s.sessions.Save(ctx, state); err != nil {
		return domain.QuestionView{}, fmt.Errorf("save session: %w", err)
	}
	return s.current(ctx, state)
}

// Current returns the question the user is on.
func (s *QuizService) Current(ctx context.Context, userID string) (domain.QuestionView, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	return s.current(ctx, state)
}

// Answer submits an answer for the current question.
func (s *QuizService) Answer(ctx context.Context, userID string, answerID int64) (domain.AnswerOutcome, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}

	next, outcome, err := s.engine.SubmitAnswer(ctx, state, answerID)
	if err != nil {
		s.resetIfStale(ctx, userID, err)
		return outcome, err
	}
	if !outcome.Accepted {
		return outcome, nil
	}
	if err := s.sessions.Advance(ctx, state, next); err != nil {
		return domain.AnswerOutcome{}, fmt.Errorf("save session: %w", err)
	}
	return outcome, nil
}

// Results completes a finished session. The session is claimed before
// anything is persisted so a duplicate request cannot complete it twice.
func (s *QuizService) Results(ctx context.Context, userID string) (domain.QuizResult, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if !state.Finished() {
		return domain.QuizResult{}, domain.ErrSessionNotComplete
	}

	claimed, ok, err := s.sessions.Take(ctx, userID)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("claim session: %w", err)
	}
	if !ok {
		return domain.QuizResult{}, domain.ErrSessionNotFound
	}

	result, err := s.engine.Complete(ctx, claimed)
	if err != nil {
		// nothing was persisted; hand the session back so the caller can retry
		if saveErr := s.sessions.Save(ctx, claimed); saveErr != nil {
			log.Printf("restore session for %s: %v", userID, saveErr)
		}
		return domain.QuizResult{}, err
	}
	return result, nil
}

// Abandon drops the user's session without recording anything.
func (s *QuizService) Abandon(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *QuizService) load(ctx context.Context, userID string) (domain.SessionState, error) {
	state, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load session: %w", err)
	}
	if !ok || state.Total() == 0 {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return state, nil
}

func (s *QuizService) current(ctx context.Context, state domain.SessionState) (domain.QuestionView, error) {
	view, err := s.engine.CurrentQuestion(ctx, state)
	if err != nil {
		s.resetIfStale(ctx, state.UserID, err)
		return domain.QuestionView{}, err
	}
	return view, nil
}

// resetIfStale clears a session whose questions disappeared; the caller is told to restart.
func (s *QuizService) resetIfStale(ctx context.Context, userID string, err error) {
	if !errors.Is(err, domain.ErrStaleSession) {
		return
	}
	log.Printf("stale quiz session for %s, resetting", userID)
	if delErr := s.sessions.Delete(ctx, userID); delErr != nil {
		log.Printf("reset session for %s: %v", userID, delErr)
	}
}
