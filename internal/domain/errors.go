package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestionsAvailable is returned when a quiz is started with an empty active pool.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrSessionNotFound is returned when a user has no quiz in progress.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionExpired marks a session that can no longer serve questions.
	ErrSessionExpired = errors.New("quiz session expired")
	// ErrSessionFinished means every question was answered; route to completion.
	ErrSessionFinished = fmt.Errorf("%w: all questions answered", ErrSessionExpired)
	// ErrStaleSession means a question referenced by the session no longer exists.
	ErrStaleSession = fmt.Errorf("%w: question no longer available", ErrSessionExpired)
	// ErrSessionConflict means the session moved on or was completed by another request.
	ErrSessionConflict = fmt.Errorf("%w: changed by another request", ErrSessionNotFound)
	// ErrSessionNotComplete is returned when completion is requested before the last answer.
	ErrSessionNotComplete = errors.New("quiz session not complete")
	// ErrInvalidAnswer indicates the answer does not belong to the current question.
	ErrInvalidAnswer = errors.New("answer does not belong to current question")
	// ErrQuestionNotFound indicates an unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrProfileNotFound indicates the user has no profile yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrMalformedQuestion flags a question without exactly four answers and one correct.
	ErrMalformedQuestion = errors.New("malformed question")
)
