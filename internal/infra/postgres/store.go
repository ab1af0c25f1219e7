package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"trivia-quiz-service/internal/domain"
)

// OpenDB connects bun to Postgres.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store persists profiles, attempts and badges.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// RecordAttempt inserts the attempt and upserts the profile in one transaction.
// The counters are incremented in SQL so concurrent completions never lose an update.
func (s *Store) RecordAttempt(ctx context.Context, user domain.User, attempt domain.QuizAttempt) (domain.UserProfile, error) {
	profile := profileRow{
		UserID:        user.ID,
		Username:      user.Username,
		TotalPoints:   attempt.Score,
		QuizzesPlayed: 1,
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := attemptRow{
			ID:             attempt.ID,
			UserID:         attempt.UserID,
			Score:          attempt.Score,
			CorrectAnswers: attempt.CorrectAnswers,
			TotalQuestions: attempt.TotalQuestions,
			CompletedAt:    attempt.CompletedAt,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		_, err := tx.NewInsert().
			Model(&profile).
			On("CONFLICT (user_id) DO UPDATE").
			Set("total_points = up.total_points + EXCLUDED.total_points").
			Set("quizzes_played = up.quizzes_played + 1").
			Set("username = COALESCE(NULLIF(EXCLUDED.username, ''), up.username)").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	return profile.toDomain(), nil
}

func (s *Store) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	var row profileRow
	err := s.db.NewSelect().Model(&row).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("select profile: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) Profiles(ctx context.Context) ([]domain.UserProfile, error) {
	var rows []profileRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("total_points DESC, user_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	out := make([]domain.UserProfile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) PointsSince(ctx context.Context, since time.Time) (map[string]int, error) {
	var rows []struct {
		UserID string `bun:"user_id"`
		Points int    `bun:"points"`
	}
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Column("user_id").
		ColumnExpr("SUM(score) AS points").
		Where("completed_at >= ?", since).
		Group("user_id").
		Having("SUM(score) > 0").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("sum points: %w", err)
	}
	points := make(map[string]int, len(rows))
	for _, r := range rows {
		points[r.UserID] = r.Points
	}
	return points, nil
}

func (s *Store) AttemptsSince(ctx context.Context, userID string, since time.Time) ([]domain.QuizAttempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("completed_at >= ?", since).
		OrderExpr("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Badges(ctx context.Context) ([]domain.Badge, error) {
	var rows []badgeRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("requirement ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select badges: %w", err)
	}
	out := make([]domain.Badge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) HasBadge(ctx context.Context, userID string, badgeID int64) (bool, error) {
	return s.db.NewSelect().
		Model((*userBadgeRow)(nil)).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Exists(ctx)
}

// AwardBadge relies on the (user_id, badge_id) primary key for idempotency.
func (s *Store) AwardBadge(ctx context.Context, userID string, badgeID int64, at time.Time) (bool, error) {
	res, err := s.db.NewInsert().
		Model(&userBadgeRow{UserID: userID, BadgeID: badgeID, EarnedAt: at}).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert user badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) UserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	var rows []userBadgeRow
	err := s.db.NewSelect().
		Model(&rows).
		Relation("Badge").
		Where("ub.user_id = ?", userID).
		OrderExpr("ub.earned_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select user badges: %w", err)
	}
	out := make([]domain.UserBadge, 0, len(rows))
	for _, r := range rows {
		ub := domain.UserBadge{UserID: r.UserID, EarnedAt: r.EarnedAt}
		if r.Badge != nil {
			ub.Badge = r.Badge.toDomain()
		}
		out = append(out, ub)
	}
	return out, nil
}

// LatestAttempt returns the user's most recent attempt, if any.
func (s *Store) LatestAttempt(ctx context.Context, userID string) (domain.QuizAttempt, bool, error) {
	var row attemptRow
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		OrderExpr("completed_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizAttempt{}, false, nil
	}
	if err != nil {
		return domain.QuizAttempt{}, false, fmt.Errorf("select latest attempt: %w", err)
	}
	return row.toDomain(), true, nil
}

func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
