package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"trivia-quiz-service/internal/domain"
)

type profileRow struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`

	UserID        string    `bun:"user_id,pk"`
	Username      string    `bun:"username,notnull"`
	TotalPoints   int       `bun:"total_points,notnull"`
	QuizzesPlayed int       `bun:"quizzes_played,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r profileRow) toDomain() domain.UserProfile {
	return domain.UserProfile{
		UserID:        r.UserID,
		Username:      r.Username,
		TotalPoints:   r.TotalPoints,
		QuizzesPlayed: r.QuizzesPlayed,
		CreatedAt:     r.CreatedAt,
	}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID             string    `bun:"id,pk,type:uuid"`
	UserID         string    `bun:"user_id,notnull"`
	Score          int       `bun:"score,notnull"`
	CorrectAnswers int       `bun:"correct_answers,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	CompletedAt    time.Time `bun:"completed_at,notnull"`
}

func (r attemptRow) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:             r.ID,
		UserID:         r.UserID,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		CompletedAt:    r.CompletedAt,
	}
}

type badgeRow struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	BadgeType   string `bun:"badge_type,notnull"`
	Requirement int    `bun:"requirement,notnull"`
	Icon        string `bun:"icon,notnull"`
	Color       string `bun:"color,notnull"`
}

func (r badgeRow) toDomain() domain.Badge {
	return domain.Badge{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        domain.BadgeType(r.BadgeType),
		Requirement: r.Requirement,
		Icon:        r.Icon,
		Color:       r.Color,
	}
}

type userBadgeRow struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	UserID   string    `bun:"user_id,pk"`
	BadgeID  int64     `bun:"badge_id,pk"`
	EarnedAt time.Time `bun:"earned_at,notnull"`
	Badge    *badgeRow `bun:"rel:belongs-to,join:badge_id=id"`
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Icon        string `bun:"icon,notnull"`
	Description string `bun:"description,notnull"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, Icon: r.Icon, Description: r.Description}
}
