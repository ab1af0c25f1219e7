package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type WSHandler struct {
	quizzes         *app.QuizService
	ranking         *app.RankingService
	profiles        *app.ProfileService
	leaderboardSize int
	now             func() time.Time
	upgrader        websocket.Upgrader
}

func NewWSHandler(quizzes *app.QuizService, ranking *app.RankingService, profiles *app.ProfileService, leaderboardSize int) *WSHandler {
	return &WSHandler{
		quizzes:         quizzes,
		ranking:         ranking,
		profiles:        profiles,
		leaderboardSize: leaderboardSize,
		now:             time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	AnswerID int64 `json:"answerId"`
}

type leaderboardPayload struct {
	Mode  domain.RankMode `json:"mode"`
	Limit int             `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
// Identity comes from the query string; authentication happens in front of this handler.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := domain.User{
		ID:       r.URL.Query().Get("userId"),
		Username: r.URL.Query().Get("name"),
	}
	if user.ID == "" || user.Username == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.dispatch(ctx, user, inbound) {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}
}

// dispatch handles one inbound message and returns the replies in order.
func (h *WSHandler) dispatch(ctx context.Context, user domain.User, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "start":
		view, err := h.quizzes.Start(ctx, user)
		if err != nil {
			return h.failure(ctx, user, err)
		}
		return []outboundMessage[any]{{Type: "question", Payload: view}}

	case "current":
		view, err := h.quizzes.Current(ctx, user.ID)
		if err != nil {
			return h.failure(ctx, user, err)
		}
		return []outboundMessage[any]{{Type: "question", Payload: view}}

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage("invalid answer payload")}
		}
		outcome, err := h.quizzes.Answer(ctx, user.ID, payload.AnswerID)
		if err != nil {
			return h.failure(ctx, user, err)
		}
		replies := []outboundMessage[any]{{Type: "answerResult", Payload: outcome}}
		if outcome.Finished {
			return append(replies, h.results(ctx, user)...)
		}
		// next question, or the same one again when the answer was ignored
		view, err := h.quizzes.Current(ctx, user.ID)
		if err != nil {
			return append(replies, h.failure(ctx, user, err)...)
		}
		return append(replies, outboundMessage[any]{Type: "question", Payload: view})

	case "results":
		return h.results(ctx, user)

	case "leaderboard":
		var payload leaderboardPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return []outboundMessage[any]{errorMessage("invalid leaderboard payload")}
			}
		}
		limit := payload.Limit
		if limit <= 0 {
			limit = h.leaderboardSize
		}
		lb, err := h.ranking.Leaderboard(ctx, user.ID, payload.Mode, limit, h.now())
		if err != nil {
			return []outboundMessage[any]{errorMessage(err.Error())}
		}
		return []outboundMessage[any]{{Type: "leaderboard", Payload: lb}}

	case "profile":
		summary, err := h.profiles.Summary(ctx, user.ID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err.Error())}
		}
		return []outboundMessage[any]{{Type: "profile", Payload: summary}}

	default:
		return []outboundMessage[any]{errorMessage("unsupported message type")}
	}
}

func (h *WSHandler) results(ctx context.Context, user domain.User) []outboundMessage[any] {
	result, err := h.quizzes.Results(ctx, user.ID)
	if err != nil {
		return h.failure(ctx, user, err)
	}
	return []outboundMessage[any]{{Type: "results", Payload: result}}
}

// failure maps core errors onto protocol messages.
func (h *WSHandler) failure(ctx context.Context, user domain.User, err error) []outboundMessage[any] {
	switch {
	case errors.Is(err, domain.ErrSessionFinished):
		return h.results(ctx, user)
	case errors.Is(err, domain.ErrNoQuestionsAvailable):
		return []outboundMessage[any]{{Type: "noQuestions", Payload: errorPayload{Message: "cannot start quiz: no questions available"}}}
	case errors.Is(err, domain.ErrSessionExpired), errors.Is(err, domain.ErrSessionNotFound):
		return []outboundMessage[any]{{Type: "restart", Payload: errorPayload{Message: err.Error()}}}
	default:
		log.Printf("quiz request for %s failed: %v", user.ID, err)
		return []outboundMessage[any]{errorMessage(err.Error())}
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
