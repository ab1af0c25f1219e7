package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"trivia-quiz-service/internal/domain"
)

// DefaultWeeklyWindow is the rolling period of the weekly leaderboard.
const DefaultWeeklyWindow = 7 * 24 * time.Hour

// RankingStore provides the read-only aggregates behind the leaderboards.
type RankingStore interface {
	Profile(ctx context.Context, userID string) (domain.UserProfile, error)
	// Profiles returns every profile ordered by total points descending.
	Profiles(ctx context.Context) ([]domain.UserProfile, error)
	// PointsSince sums attempt scores completed at or after since, per user.
	// Users without points in the period are omitted.
	PointsSince(ctx context.Context, since time.Time) (map[string]int, error)
}

// RankingService computes 1-based positions ordered by points descending.
// Ties are broken by user ID ascending so ranks are stable across calls.
type RankingService struct {
	store  RankingStore
	window time.Duration
}

func NewRankingService(store RankingStore, window time.Duration) *RankingService {
	if window <= 0 {
		window = DefaultWeeklyWindow
	}
	return &RankingService{store: store, window: window}
}

// ahead reports whether (aPoints, aID) is ordered before (bPoints, bID).
func ahead(aPoints int, aID string, bPoints int, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	return aID < bID
}

// AllTimeRank ranks the user by total points. Users without a profile rank as zero points.
func (r *RankingService) AllTimeRank(ctx context.Context, userID string) (int, error) {
	profiles, err := r.store.Profiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("load profiles: %w", err)
	}

	mine := 0
	for _, p := range profiles {
		if p.UserID == userID {
			mine = p.TotalPoints
			break
		}
	}
	rank := 1
	for _, p := range profiles {
		if p.UserID != userID && ahead(p.TotalPoints, p.UserID, mine, userID) {
			rank++
		}
	}
	return rank, nil
}

// WeeklyRank ranks the user among players with points inside the window ending at now.
// It also returns the user's own weekly points.
func (r *RankingService) WeeklyRank(ctx context.Context, userID string, now time.Time) (int, int, error) {
	points, err := r.store.PointsSince(ctx, now.Add(-r.window))
	if err != nil {
		return 0, 0, fmt.Errorf("load weekly points: %w", err)
	}

	mine := points[userID]
	rank := 1
	for other, p := range points {
		if other == userID || p <= 0 {
			continue
		}
		if ahead(p, other, mine, userID) {
			rank++
		}
	}
	return rank, mine, nil
}

// TopN returns the first n standings for the given mode.
func (r *RankingService) TopN(ctx context.Context, n int, mode domain.RankMode, now time.Time) ([]domain.Standing, error) {
	profiles, err := r.store.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	var standings []domain.Standing
	switch mode {
	case domain.RankWeekly:
		points, err := r.store.PointsSince(ctx, now.Add(-r.window))
		if err != nil {
			return nil, fmt.Errorf("load weekly points: %w", err)
		}
		names := make(map[string]string, len(profiles))
		for _, p := range profiles {
			names[p.UserID] = p.Username
		}
		for userID, p := range points {
			if p <= 0 {
				continue
			}
			standings = append(standings, domain.Standing{UserID: userID, Username: names[userID], Points: p})
		}
	case domain.RankAllTime, "":
		for _, p := range profiles {
			standings = append(standings, domain.Standing{UserID: p.UserID, Username: p.Username, Points: p.TotalPoints})
		}
	default:
		return nil, fmt.Errorf("unknown rank mode %q", mode)
	}

	sort.Slice(standings, func(i, j int) bool {
		return ahead(standings[i].Points, standings[i].UserID, standings[j].Points, standings[j].UserID)
	})
	if n > 0 && len(standings) > n {
		standings = standings[:n]
	}
	for i := range standings {
		standings[i].Rank = i + 1
	}
	if standings == nil {
		standings = []domain.Standing{}
	}
	return standings, nil
}

// Leaderboard combines the top n standings with the requesting user's own position.
func (r *RankingService) Leaderboard(ctx context.Context, userID string, mode domain.RankMode, n int, now time.Time) (domain.Leaderboard, error) {
	if mode == "" {
		mode = domain.RankWeekly
	}
	entries, err := r.TopN(ctx, n, mode, now)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	lb := domain.Leaderboard{Mode: mode, Entries: entries}
	if userID == "" {
		return lb, nil
	}
	if mode == domain.RankWeekly {
		lb.UserRank, lb.UserPoints, err = r.WeeklyRank(ctx, userID, now)
		return lb, err
	}

	lb.UserRank, err = r.AllTimeRank(ctx, userID)
	if err != nil {
		return lb, err
	}
	profile, err := r.store.Profile(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return lb, fmt.Errorf("load profile: %w", err)
	}
	lb.UserPoints = profile.TotalPoints
	return lb, nil
}
