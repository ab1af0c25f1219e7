package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"
)

const (
	monthlyWindow = 30 * 24 * time.Hour
	// wonPercentage is the share of correct answers that counts a quiz as won.
	wonPercentage = 70.0
)

// HistoryStore exposes a user's past attempts and earned badges.
type HistoryStore interface {
	AttemptsSince(ctx context.Context, userID string, since time.Time) ([]domain.QuizAttempt, error)
	UserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error)
}

// ProfileService assembles profile pages.
type ProfileService struct {
	profiles RankingStore
	history  HistoryStore
	ranking  *RankingService
	now      func() time.Time
}

func NewProfileService(profiles RankingStore, history HistoryStore, ranking *RankingService) *ProfileService {
	return &ProfileService{profiles: profiles, history: history, ranking: ranking, now: time.Now}
}

// Summary returns the user's counters, ranks and badges. Users who never
// completed a quiz get an empty profile rather than an error.
func (p *ProfileService) Summary(ctx context.Context, userID string) (domain.ProfileSummary, error) {
	profile, err := p.profiles.Profile(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = domain.UserProfile{UserID: userID}
	} else if err != nil {
		return domain.ProfileSummary{}, fmt.Errorf("load profile: %w", err)
	}

	now := p.now()
	rank, err := p.ranking.AllTimeRank(ctx, userID)
	if err != nil {
		return domain.ProfileSummary{}, err
	}
	_, weekly, err := p.ranking.WeeklyRank(ctx, userID, now)
	if err != nil {
		return domain.ProfileSummary{}, err
	}

	attempts, err := p.history.AttemptsSince(ctx, userID, time.Time{})
	if err != nil {
		return domain.ProfileSummary{}, fmt.Errorf("load attempts: %w", err)
	}
	monthStart := now.Add(-monthlyWindow)
	monthly, won := 0, 0
	for _, a := range attempts {
		if !a.CompletedAt.Before(monthStart) {
			monthly++
		}
		if a.Percentage() >= wonPercentage {
			won++
		}
	}

	badges, err := p.history.UserBadges(ctx, userID)
	if err != nil {
		return domain.ProfileSummary{}, fmt.Errorf("load badges: %w", err)
	}

	return domain.ProfileSummary{
		Profile:        profile,
		Rank:           rank,
		WeeklyPoints:   weekly,
		MonthlyQuizzes: monthly,
		QuizzesWon:     won,
		Badges:         badges,
	}, nil
}
