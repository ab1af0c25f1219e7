package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// DefaultBadges is the badge catalog used when no database is configured.
func DefaultBadges() []domain.Badge {
	return []domain.Badge{
		{ID: 1, Name: "First Quiz", Description: "Complete your first quiz", Type: domain.BadgeBeginner, Requirement: 1, Color: "#06B6D4"},
		{ID: 2, Name: "Beginner", Description: "Complete 5 quizzes", Type: domain.BadgeBeginner, Requirement: 5, Color: "#22C55E"},
		{ID: 3, Name: "Enthusiast", Description: "Reach 100 points", Type: domain.BadgeIntermediate, Requirement: 100, Color: "#FFD700"},
		{ID: 4, Name: "Expert", Description: "Reach 500 points", Type: domain.BadgeExpert, Requirement: 500, Color: "#A855F7"},
		{ID: 5, Name: "Master", Description: "Reach 1000 points", Type: domain.BadgeMaster, Requirement: 1000, Color: "#FF6B9D"},
		{ID: 6, Name: "Legend", Description: "Reach 5000 points", Type: domain.BadgeMaster, Requirement: 5000, Color: "#7C3AED"},
	}
}

// Store keeps profiles, attempts and badge awards in process memory.
// Every write happens under one mutex, so concurrent completions by the same
// user cannot lose an update.
type Store struct {
	clock func() time.Time

	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
	attempts []domain.QuizAttempt
	badges   []domain.Badge
	awards   map[string]map[int64]time.Time

	categories []domain.Category
}

func NewStore(badges []domain.Badge) *Store {
	return &Store{
		clock:    time.Now,
		profiles: make(map[string]domain.UserProfile),
		badges:   append([]domain.Badge(nil), badges...),
		awards:   make(map[string]map[int64]time.Time),
	}
}

func (s *Store) RecordAttempt(_ context.Context, user domain.User, attempt domain.QuizAttempt) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[user.ID]
	if !ok {
		profile = domain.UserProfile{UserID: user.ID, CreatedAt: s.clock()}
	}
	if user.Username != "" {
		profile.Username = user.Username
	}
	profile.TotalPoints += attempt.Score
	profile.QuizzesPlayed++
	s.profiles[user.ID] = profile
	s.attempts = append(s.attempts, attempt)
	return profile, nil
}

func (s *Store) Profile(_ context.Context, userID string) (domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) Profiles(_ context.Context) ([]domain.UserProfile, error) {
	s.mu.RLock()
	out := make([]domain.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *Store) PointsSince(_ context.Context, since time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := make(map[string]int)
	for _, a := range s.attempts {
		if a.CompletedAt.Before(since) {
			continue
		}
		points[a.UserID] += a.Score
	}
	for userID, p := range points {
		if p <= 0 {
			delete(points, userID)
		}
	}
	return points, nil
}

// AttemptsSince returns the user's attempts, newest first.
func (s *Store) AttemptsSince(_ context.Context, userID string, since time.Time) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.QuizAttempt
	for i := len(s.attempts) - 1; i >= 0; i-- {
		a := s.attempts[i]
		if a.UserID == userID && !a.CompletedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// LatestAttempt returns the user's most recent attempt, if any.
func (s *Store) LatestAttempt(_ context.Context, userID string) (domain.QuizAttempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest domain.QuizAttempt
	found := false
	for _, a := range s.attempts {
		if a.UserID == userID && (!found || !a.CompletedAt.Before(latest.CompletedAt)) {
			latest, found = a, true
		}
	}
	return latest, found, nil
}

// SetCategories replaces the category list served without a database.
func (s *Store) SetCategories(categories []domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]domain.Category(nil), categories...)
}

func (s *Store) Categories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category{}, s.categories...), nil
}

func (s *Store) Badges(_ context.Context) ([]domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Badge(nil), s.badges...), nil
}

func (s *Store) HasBadge(_ context.Context, userID string, badgeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.awards[userID][badgeID]
	return ok, nil
}

func (s *Store) AwardBadge(_ context.Context, userID string, badgeID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	earned, ok := s.awards[userID]
	if !ok {
		earned = make(map[int64]time.Time)
		s.awards[userID] = earned
	}
	if _, exists := earned[badgeID]; exists {
		return false, nil
	}
	earned[badgeID] = at
	return true, nil
}

// UserBadges returns earned badges, most recent first.
func (s *Store) UserBadges(_ context.Context, userID string) ([]domain.UserBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.UserBadge{}
	for _, badge := range s.badges {
		if at, ok := s.awards[userID][badge.ID]; ok {
			out = append(out, domain.UserBadge{UserID: userID, Badge: badge, EarnedAt: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EarnedAt.After(out[j].EarnedAt) })
	return out, nil
}
