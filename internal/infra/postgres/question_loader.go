package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-quiz-service/internal/domain"
)

// QuestionLoader loads questions and their answers from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// LoadQuestions returns every question, active or not; banks filter and validate.
func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT q.id, q.category_id, q.question_text, q.points, q.is_active,
		       a.id, a.answer_text, a.is_correct
		FROM questions q
		LEFT JOIN answers a ON a.question_id = q.id
		ORDER BY q.id, a.id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			answerID   *int64
			answerText *string
			correct    *bool
		)
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Text, &q.Points, &q.Active, &answerID, &answerText, &correct); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if n := len(questions); n == 0 || questions[n-1].ID != q.ID {
			questions = append(questions, q)
		}
		if answerID != nil {
			last := &questions[len(questions)-1]
			last.Answers = append(last.Answers, domain.Answer{ID: *answerID, Text: deref(answerText), Correct: correct != nil && *correct})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
