package app

import (
	"context"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/metrics"
)

// BadgeStore exposes the badge catalog and per-user awards.
type BadgeStore interface {
	Badges(ctx context.Context) ([]domain.Badge, error)
	HasBadge(ctx context.Context, userID string, badgeID int64) (bool, error)
	// AwardBadge is idempotent and reports whether a new award was created.
	AwardBadge(ctx context.Context, userID string, badgeID int64, at time.Time) (bool, error)
}

// badgeRules maps a badge type to the profile counter its requirement applies to.
// Special badges have no rule and are never awarded automatically.
var badgeRules = map[domain.BadgeType]func(domain.UserProfile) int{
	domain.BadgeBeginner:     func(p domain.UserProfile) int { return p.QuizzesPlayed },
	domain.BadgeIntermediate: func(p domain.UserProfile) int { return p.TotalPoints },
	domain.BadgeExpert:       func(p domain.UserProfile) int { return p.TotalPoints },
	domain.BadgeMaster:       func(p domain.UserProfile) int { return p.TotalPoints },
}

// BadgeEvaluator awards catalog badges whose thresholds a profile has crossed.
type BadgeEvaluator struct {
	store BadgeStore
	now   func() time.Time
}

// BadgeOption customizes a BadgeEvaluator.
type BadgeOption func(*BadgeEvaluator)

// WithAwardClock sets the clock used to timestamp awards.
func WithAwardClock(now func() time.Time) BadgeOption {
	return func(b *BadgeEvaluator) { b.now = now }
}

func NewBadgeEvaluator(store BadgeStore, opts ...BadgeOption) *BadgeEvaluator {
	b := &BadgeEvaluator{store: store, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Evaluate returns the badges newly awarded to the user. An empty slice is a normal result.
func (b *BadgeEvaluator) Evaluate(ctx context.Context, userID string, profile domain.UserProfile) ([]domain.Badge, error) {
	catalog, err := b.store.Badges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}

	awarded := []domain.Badge{}
	for _, badge := range catalog {
		metric, ok := badgeRules[badge.Type]
		if !ok || metric(profile) < badge.Requirement {
			continue
		}

		has, err := b.store.HasBadge(ctx, userID, badge.ID)
		if err != nil {
			return awarded, fmt.Errorf("check badge %d: %w", badge.ID, err)
		}
		if has {
			continue
		}

		created, err := b.store.AwardBadge(ctx, userID, badge.ID, b.now())
		if err != nil {
			return awarded, fmt.Errorf("award badge %d: %w", badge.ID, err)
		}
		if created {
			metrics.BadgesAwarded.WithLabelValues(string(badge.Type)).Inc()
			awarded = append(awarded, badge)
		}
	}
	return awarded, nil
}
