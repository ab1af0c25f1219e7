package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trivia-quiz-service/internal/domain"
)

const (
	homeCategories     = 4
	discoverCategories = 8
)

// CategoryStore lists question categories.
type CategoryStore interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// RecentAttempts finds a user's last completed quiz.
type RecentAttempts interface {
	LatestAttempt(ctx context.Context, userID string) (domain.QuizAttempt, bool, error)
}

// CatalogService serves the browsing screens around the quiz.
type CatalogService struct {
	categories CategoryStore
	profiles   RankingStore
	attempts   RecentAttempts
}

func NewCatalogService(categories CategoryStore, profiles RankingStore, attempts RecentAttempts) *CatalogService {
	return &CatalogService{categories: categories, profiles: profiles, attempts: attempts}
}

// Discover lists the first categories, or every category whose name contains
// search (case-insensitive) when search is set.
func (c *CatalogService) Discover(ctx context.Context, search string) ([]domain.Category, error) {
	all, err := c.categories.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return firstN(all, discoverCategories), nil
	}
	out := []domain.Category{}
	for _, cat := range all {
		if strings.Contains(strings.ToLower(cat.Name), search) {
			out = append(out, cat)
		}
	}
	return out, nil
}

// Home returns the landing payload. New users get an empty profile.
func (c *CatalogService) Home(ctx context.Context, userID string) (domain.Home, error) {
	profile, err := c.profiles.Profile(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = domain.UserProfile{UserID: userID}
	} else if err != nil {
		return domain.Home{}, fmt.Errorf("load profile: %w", err)
	}

	all, err := c.categories.Categories(ctx)
	if err != nil {
		return domain.Home{}, fmt.Errorf("load categories: %w", err)
	}
	home := domain.Home{Profile: profile, Categories: firstN(all, homeCategories)}

	latest, ok, err := c.attempts.LatestAttempt(ctx, userID)
	if err != nil {
		return domain.Home{}, fmt.Errorf("load latest attempt: %w", err)
	}
	if ok {
		home.RecentAttempt = &latest
	}
	return home, nil
}

func firstN(categories []domain.Category, n int) []domain.Category {
	if len(categories) > n {
		categories = categories[:n]
	}
	if categories == nil {
		return []domain.Category{}
	}
	return categories
}
