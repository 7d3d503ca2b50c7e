package domain

import "time"

// Quiz is catalog metadata for a set of questions. Immutable once loaded
// into a session.
type Quiz struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Option is one labeled choice of a question ("A" -> option text).
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single quiz item. Options is ordered by label; it may be
// empty when the upstream payload could not be decoded.
type Question struct {
	ID      int64    `json:"id"`
	QuizID  int64    `json:"quizId"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// AnswerRecord is one submitted answer, built at submit time from the
// answer registry. Unanswered questions produce no record.
type AnswerRecord struct {
	QuestionID int64  `json:"question_id"`
	UserID     int64  `json:"user_id"`
	Answer     string `json:"answer"`
}

// ScoreSummary is the server's verdict for a submitted batch.
type ScoreSummary struct {
	Score        float64 `json:"score"`
	CorrectCount int     `json:"correctAnswerCount"`
}

// Attempt is an archived record of a completed session.
type Attempt struct {
	QuizID   int64
	UserID   int64
	Score    float64
	Correct  int
	Answered int
	TakenAt  time.Time
}
