package domain

import "time"

// DefaultQuestionPoints applies to questions stored with a zero point value.
const DefaultQuestionPoints = 10

// AnswersPerQuestion is the fixed number of candidate answers per question.
const AnswersPerQuestion = 4

// User identifies the player on whose behalf the core acts.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Category groups questions by topic.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// Answer is one of the candidate answers of a question.
type Answer struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models a multiple choice question with exactly one correct answer.
type Question struct {
	ID         int64    `json:"id"`
	CategoryID int64    `json:"categoryId"`
	Text       string   `json:"text"`
	Points     int      `json:"points"` // defaults to DefaultQuestionPoints if zero
	Active     bool     `json:"active"`
	Answers    []Answer `json:"answers"`
}

// SessionState is the in-progress quiz of a single user.
type SessionState struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	QuestionIDs []int64   `json:"questionIds"`
	Index       int       `json:"index"`
	Score       int       `json:"score"`
	Correct     int       `json:"correct"`
	StartedAt   time.Time `json:"startedAt"`
}

// Total is the number of questions in the session.
func (s SessionState) Total() int {
	return len(s.QuestionIDs)
}

// Finished reports whether every question has been answered.
func (s SessionState) Finished() bool {
	return s.Index >= len(s.QuestionIDs)
}

// SamePosition reports whether o is the same session run at the same question.
func (s SessionState) SamePosition(o SessionState) bool {
	return s.UserID == o.UserID && s.Index == o.Index && s.StartedAt.Equal(o.StartedAt)
}

// Progress is the percentage shown alongside the current question.
func (s SessionState) Progress() float64 {
	if len(s.QuestionIDs) == 0 {
		return 0
	}
	return float64(s.Index+1) / float64(len(s.QuestionIDs)) * 100
}

// QuizAttempt is the immutable record of a completed session.
type QuizAttempt struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Percentage of correctly answered questions.
func (a QuizAttempt) Percentage() float64 {
	if a.TotalQuestions <= 0 {
		return 0
	}
	return float64(a.CorrectAnswers) / float64(a.TotalQuestions) * 100
}

// UserProfile holds the cumulative counters of a user.
type UserProfile struct {
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	TotalPoints   int       `json:"totalPoints"`
	QuizzesPlayed int       `json:"quizzesPlayed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// BadgeType selects which counter a badge requirement is measured against.
type BadgeType string

const (
	BadgeBeginner     BadgeType = "beginner"
	BadgeIntermediate BadgeType = "intermediate"
	BadgeExpert       BadgeType = "expert"
	BadgeMaster       BadgeType = "master"
	BadgeSpecial      BadgeType = "special"
)

// Badge is a catalog entry.
type Badge struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        BadgeType `json:"type"`
	Requirement int       `json:"requirement"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
}

// UserBadge records that a user earned a badge.
type UserBadge struct {
	UserID   string    `json:"userId"`
	Badge    Badge     `json:"badge"`
	EarnedAt time.Time `json:"earnedAt"`
}

// RankMode selects the leaderboard metric.
type RankMode string

const (
	RankAllTime RankMode = "all-time"
	RankWeekly  RankMode = "weekly"
)

// Standing is one leaderboard row.
type Standing struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// AnswerView is an answer as shown to players; correctness stays server side.
type AnswerView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the mid-quiz payload handed to the presentation layer.
type QuestionView struct {
	QuestionID int64        `json:"questionId"`
	CategoryID int64        `json:"categoryId"`
	Text       string       `json:"text"`
	Points     int          `json:"points"`
	Answers    []AnswerView `json:"answers"`
	Number     int          `json:"number"`
	Total      int          `json:"total"`
	Progress   float64      `json:"progress"`
	Score      int          `json:"score"`
}

// AnswerOutcome summarizes a submission.
type AnswerOutcome struct {
	// Accepted is false when the answer did not belong to the current question.
	Accepted bool `json:"accepted"`
	Correct  bool `json:"correct"`
	Awarded  int  `json:"awarded"`
	Score    int  `json:"score"`
	Finished bool `json:"finished"`
}

// QuizResult is returned once a session completes.
type QuizResult struct {
	Attempt    QuizAttempt `json:"attempt"`
	Profile    UserProfile `json:"profile"`
	Rank       int         `json:"rank"`
	Percentage float64     `json:"percentage"`
	NewBadges  []Badge     `json:"newBadges"`
}

// ProfileSummary aggregates the statistics shown on a profile page.
type ProfileSummary struct {
	Profile        UserProfile `json:"profile"`
	Rank           int         `json:"rank"`
	WeeklyPoints   int         `json:"weeklyPoints"`
	MonthlyQuizzes int         `json:"monthlyQuizzes"`
	QuizzesWon     int         `json:"quizzesWon"`
	Badges         []UserBadge `json:"badges"`
}

// BankStats describes the loaded question bank.
type BankStats struct {
	TotalQuestions  int `json:"totalQuestions"`
	ActiveQuestions int `json:"activeQuestions"`
	Malformed       int `json:"malformed"`
	Categories      int `json:"categories"`
}

// Leaderboard is the payload of a leaderboard tab.
type Leaderboard struct {
	Mode       RankMode   `json:"mode"`
	Entries    []Standing `json:"entries"`
	UserRank   int        `json:"userRank"`
	UserPoints int        `json:"userPoints"`
}

// Home is the landing payload: the player's counters, a few categories and
// their last finished quiz.
type Home struct {
	Profile       UserProfile  `json:"profile"`
	Categories    []Category   `json:"categories"`
	RecentAttempt *QuizAttempt `json:"recentAttempt,omitempty"`
}
