package domain

import "fmt"

// PointValue returns the points awarded for a correct answer.
func (q Question) PointValue() int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// Answer looks up one of the question's own answers.
func (q Question) Answer(answerID int64) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a, true
		}
	}
	return Answer{}, false
}

// Validate checks the four-answers, one-correct invariant.
func (q Question) Validate() error {
	if len(q.Answers) != AnswersPerQuestion {
		return fmt.Errorf("%w: question %d has %d answers", ErrMalformedQuestion, q.ID, len(q.Answers))
	}
	correct := 0
	seen := make(map[int64]struct{}, len(q.Answers))
	for _, a := range q.Answers {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: question %d repeats answer %d", ErrMalformedQuestion, q.ID, a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: question %d has %d correct answers", ErrMalformedQuestion, q.ID, correct)
	}
	return nil
}

// View strips correctness flags and attaches session progress.
func (q Question) View(state SessionState) QuestionView {
	answers := make([]AnswerView, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerView{ID: a.ID, Text: a.Text})
	}
	return QuestionView{
		QuestionID: q.ID,
		CategoryID: q.CategoryID,
		Text:       q.Text,
		Points:     q.PointValue(),
		Answers:    answers,
		Number:     state.Index + 1,
		Total:      state.Total(),
		Progress:   state.Progress(),
		Score:      state.Score,
	}
}
