package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for started quiz sessions
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Total number of quiz sessions started",
		},
	)

	// Counter for answer submissions
	AnswersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Total number of submitted answers",
		},
		[]string{"result"}, // result: correct/incorrect/ignored
	)

	// Counter for completed attempts
	AttemptsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_completed_total",
			Help: "Total number of completed quiz attempts",
		},
	)

	// Histogram of final attempt scores
	AttemptScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_attempt_score",
			Help:    "Final score of completed quiz attempts",
			Buckets: prometheus.LinearBuckets(0, 25, 9),
		},
	)

	// Counter for awarded badges
	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_badges_awarded_total",
			Help: "Total number of badges awarded",
		},
		[]string{"type"},
	)

	// Counter for question bank loads from the backing store
	QuestionBankLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_question_bank_loads_total",
			Help: "Total number of question bank loads from the backing store",
		},
		[]string{"cache"}, // cache: memory/redis
	)
)

// Answer result labels.
const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
	ResultIgnored   = "ignored"
)
