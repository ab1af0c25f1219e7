package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

func badgeNames(badges []domain.Badge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}

func TestEvaluateAwardsBeginnerOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.DefaultBadges())
	evaluator := app.NewBadgeEvaluator(store, app.WithAwardClock(func() time.Time { return fixedNow }))

	first, err := evaluator.Evaluate(ctx, "u1", domain.UserProfile{UserID: "u1", QuizzesPlayed: 1, TotalPoints: 30})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(first) != 1 || first[0].Name != "First Quiz" {
		t.Fatalf("expected First Quiz, got %v", badgeNames(first))
	}

	again, err := evaluator.Evaluate(ctx, "u1", domain.UserProfile{UserID: "u1", QuizzesPlayed: 2, TotalPoints: 60})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if again == nil || len(again) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", again)
	}

	earned, _ := store.UserBadges(ctx, "u1")
	if len(earned) != 1 || !earned[0].EarnedAt.Equal(fixedNow) {
		t.Fatalf("expected one stored award, got %+v", earned)
	}
}

func TestEvaluateUsesCounterPerBadgeType(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.DefaultBadges())
	evaluator := app.NewBadgeEvaluator(store)

	// plenty of points but only one quiz: points badges yes, "Beginner" (5 quizzes) no
	awarded, err := evaluator.Evaluate(ctx, "u1", domain.UserProfile{UserID: "u1", QuizzesPlayed: 1, TotalPoints: 1200})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got := map[string]bool{}
	for _, name := range badgeNames(awarded) {
		got[name] = true
	}
	for _, want := range []string{"First Quiz", "Enthusiast", "Expert", "Master"} {
		if !got[want] {
			t.Fatalf("expected %s in %v", want, badgeNames(awarded))
		}
	}
	if got["Beginner"] || got["Legend"] {
		t.Fatalf("unexpected badges %v", badgeNames(awarded))
	}
}

func TestEvaluateNeverAwardsSpecialBadges(t *testing.T) {
	store := memory.NewStore([]domain.Badge{
		{ID: 1, Name: "Founder", Type: domain.BadgeSpecial, Requirement: 0},
	})
	awarded, err := app.NewBadgeEvaluator(store).Evaluate(context.Background(), "u1", domain.UserProfile{UserID: "u1", QuizzesPlayed: 100, TotalPoints: 100000})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("special badge awarded automatically: %v", badgeNames(awarded))
	}
}

func TestEvaluateConcurrentCallsAwardOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.DefaultBadges())
	evaluator := app.NewBadgeEvaluator(store)
	profile := domain.UserProfile{UserID: "u1", QuizzesPlayed: 1}

	results := make(chan int, 8)
	for i := 0; i < 8; i++ {
		go func() {
			awarded, err := evaluator.Evaluate(ctx, "u1", profile)
			if err != nil {
				results <- -1
				return
			}
			results <- len(awarded)
		}()
	}
	total := 0
	for i := 0; i < 8; i++ {
		n := <-results
		if n < 0 {
			t.Fatalf("evaluate failed")
		}
		total += n
	}
	if total != 1 {
		t.Fatalf("expected exactly one award across goroutines, got %d", total)
	}
}

type brokenBadgeStore struct{ app.BadgeStore }

func (brokenBadgeStore) Badges(context.Context) ([]domain.Badge, error) {
	return nil, errors.New("catalog offline")
}

func TestEvaluateCatalogError(t *testing.T) {
	_, err := app.NewBadgeEvaluator(brokenBadgeStore{}).Evaluate(context.Background(), "u1", domain.UserProfile{})
	if err == nil {
		t.Fatalf("expected catalog error")
	}
}
