package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

type testStack struct {
	server *httptest.Server
	store  *memory.Store
	bank   *memory.QuestionBank
}

func newTestStack(t *testing.T, questions []domain.Question) *testStack {
	t.Helper()
	store := memory.NewStore(memory.DefaultBadges())
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(questions), time.Minute)
	ranking := app.NewRankingService(store, app.DefaultWeeklyWindow)
	engine := app.NewQuizEngine(bank, store, app.NewBadgeEvaluator(store), ranking)
	quizzes := app.NewQuizService(memory.NewSessionStore(), engine)
	profiles := app.NewProfileService(store, store, ranking)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(quizzes, ranking, profiles, 10).ServeWS)
	store.SetCategories([]domain.Category{{ID: 1, Name: "Mathematics"}, {ID: 2, Name: "Science"}, {ID: 3, Name: "Computer Science"}})
	catalog := app.NewCatalogService(store, store, store)
	NewAPIHandler(ranking, profiles, catalog, bank, 10).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &testStack{server: server, store: store, bank: bank}
}

func (s *testStack) dial(t *testing.T, userID, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + s.server.URL[len("http"):] + "/ws?userId=" + userID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string, into any) {
	t.Helper()
	var msg envelope
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%s)", expect, msg.Type, msg.Payload)
	}
	if into != nil {
		if err := json.Unmarshal(msg.Payload, into); err != nil {
			t.Fatalf("decode %s: %v", expect, err)
		}
	}
}

// correctAnswer follows the fixture convention: answer id = question id * 10 + 1.
func correctAnswer(questionID int64) int64 {
	return questionID*10 + 1
}

func fixtureQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		id := int64(i)
		answers := make([]domain.Answer, domain.AnswersPerQuestion)
		for j := range answers {
			answers[j] = domain.Answer{ID: id*10 + int64(j), Text: "option", Correct: j == 1}
		}
		questions = append(questions, domain.Question{ID: id, CategoryID: 1, Text: "question", Points: 10, Active: true, Answers: answers})
	}
	return questions
}

func TestWebSocketQuizFlow(t *testing.T) {
	stack := newTestStack(t, fixtureQuestions(3))
	conn := stack.dial(t, "u1", "Alice")

	send(t, conn, "start", nil)
	var view domain.QuestionView
	readNext(t, conn, "question", &view)
	if view.Total != 3 || view.Number != 1 {
		t.Fatalf("unexpected first question %+v", view)
	}

	// an answer from another question is ignored and the same question is re-sent
	send(t, conn, "answer", map[string]any{"answerId": 9999})
	var ignored domain.AnswerOutcome
	readNext(t, conn, "answerResult", &ignored)
	if ignored.Accepted {
		t.Fatalf("expected foreign answer to be ignored")
	}
	var again domain.QuestionView
	readNext(t, conn, "question", &again)
	if again.QuestionID != view.QuestionID {
		t.Fatalf("expected same question, got %d want %d", again.QuestionID, view.QuestionID)
	}

	var result domain.QuizResult
	for i := 0; i < 3; i++ {
		send(t, conn, "answer", map[string]any{"answerId": correctAnswer(view.QuestionID)})
		var outcome domain.AnswerOutcome
		readNext(t, conn, "answerResult", &outcome)
		if !outcome.Accepted || !outcome.Correct {
			t.Fatalf("expected accepted correct answer, got %+v", outcome)
		}
		if outcome.Finished {
			readNext(t, conn, "results", &result)
			break
		}
		readNext(t, conn, "question", &view)
	}

	if result.Attempt.Score != 30 || result.Attempt.CorrectAnswers != 3 || result.Rank != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.NewBadges) != 1 || result.NewBadges[0].Name != "First Quiz" {
		t.Fatalf("expected First Quiz badge, got %+v", result.NewBadges)
	}

	// the session was consumed by completion
	send(t, conn, "results", nil)
	readNext(t, conn, "restart", nil)
}

func TestWebSocketNoQuestions(t *testing.T) {
	stack := newTestStack(t, nil)
	conn := stack.dial(t, "u1", "Alice")

	send(t, conn, "start", nil)
	readNext(t, conn, "noQuestions", nil)
}

func TestWebSocketLeaderboardAndProfile(t *testing.T) {
	stack := newTestStack(t, fixtureQuestions(1))
	ctx := context.Background()
	now := time.Now()
	for _, rec := range []struct {
		id    string
		score int
	}{{"a", 100}, {"b", 100}, {"c", 50}} {
		attempt := domain.QuizAttempt{ID: rec.id, UserID: rec.id, Score: rec.score, CorrectAnswers: 1, TotalQuestions: 1, CompletedAt: now}
		if _, err := stack.store.RecordAttempt(ctx, domain.User{ID: rec.id, Username: rec.id}, attempt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	conn := stack.dial(t, "c", "c")
	send(t, conn, "leaderboard", map[string]any{"mode": "all-time", "limit": 2})
	var lb domain.Leaderboard
	readNext(t, conn, "leaderboard", &lb)
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "a" || lb.Entries[1].UserID != "b" {
		t.Fatalf("unexpected entries %+v", lb.Entries)
	}
	if lb.UserRank != 3 || lb.UserPoints != 50 {
		t.Fatalf("expected own rank 3 with 50 points, got %d/%d", lb.UserRank, lb.UserPoints)
	}

	send(t, conn, "profile", nil)
	var summary domain.ProfileSummary
	readNext(t, conn, "profile", &summary)
	if summary.Profile.TotalPoints != 50 || summary.QuizzesWon != 1 || summary.WeeklyPoints != 50 {
		t.Fatalf("unexpected profile %+v", summary)
	}

	send(t, conn, "bogus", nil)
	readNext(t, conn, "error", nil)
}

func TestServeWSRequiresIdentity(t *testing.T) {
	stack := newTestStack(t, fixtureQuestions(1))
	resp, err := http.Get(stack.server.URL + "/ws?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
