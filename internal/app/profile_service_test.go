package app_test

import (
	"context"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

func TestProfileSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.DefaultBadges())
	ranking := app.NewRankingService(store, app.DefaultWeeklyWindow)
	profiles := app.NewProfileService(store, store, ranking)

	now := time.Now()
	attempts := []domain.QuizAttempt{
		{ID: "a1", UserID: "u1", Score: 80, CorrectAnswers: 8, TotalQuestions: 10, CompletedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: "a2", UserID: "u1", Score: 50, CorrectAnswers: 5, TotalQuestions: 10, CompletedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "a3", UserID: "u1", Score: 70, CorrectAnswers: 7, TotalQuestions: 10, CompletedAt: now.Add(-time.Hour)},
	}
	for _, a := range attempts {
		if _, err := store.RecordAttempt(ctx, domain.User{ID: "u1", Username: "Alice"}, a); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	record(t, store, "u2", 500, now)
	if _, err := store.AwardBadge(ctx, "u1", 1, now); err != nil {
		t.Fatalf("award: %v", err)
	}

	summary, err := profiles.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Profile.TotalPoints != 200 || summary.Profile.QuizzesPlayed != 3 || summary.Profile.Username != "Alice" {
		t.Fatalf("unexpected profile %+v", summary.Profile)
	}
	if summary.Rank != 2 || summary.WeeklyPoints != 70 {
		t.Fatalf("unexpected rank/weekly %d/%d", summary.Rank, summary.WeeklyPoints)
	}
	if summary.MonthlyQuizzes != 2 || summary.QuizzesWon != 2 {
		t.Fatalf("unexpected monthly/won %d/%d", summary.MonthlyQuizzes, summary.QuizzesWon)
	}
	if len(summary.Badges) != 1 || summary.Badges[0].Badge.Name != "First Quiz" {
		t.Fatalf("unexpected badges %+v", summary.Badges)
	}
}

func TestProfileSummaryNewUser(t *testing.T) {
	store := memory.NewStore(memory.DefaultBadges())
	ranking := app.NewRankingService(store, app.DefaultWeeklyWindow)
	summary, err := app.NewProfileService(store, store, ranking).Summary(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Profile.UserID != "ghost" || summary.Profile.TotalPoints != 0 || summary.Rank != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Badges == nil {
		t.Fatalf("expected empty badge list, got nil")
	}
}
