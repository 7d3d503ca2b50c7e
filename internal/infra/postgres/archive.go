package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-gateway/internal/domain"
)

// Archive keeps a durable record of completed attempts. It is best-effort
// from the session's point of view: a write failure never breaks the result.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

func (a *Archive) Record(ctx context.Context, attempt domain.Attempt) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO attempts (quiz_id, user_id, score, correct_count, answered_count, taken_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.QuizID, attempt.UserID, attempt.Score, attempt.Correct, attempt.Answered, attempt.TakenAt)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (a *Archive) History(ctx context.Context, userID int64) ([]domain.Attempt, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT quiz_id, user_id, score, correct_count, answered_count, taken_at
		 FROM attempts WHERE user_id=$1 ORDER BY taken_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var attempt domain.Attempt
		if err := rows.Scan(&attempt.QuizID, &attempt.UserID, &attempt.Score,
			&attempt.Correct, &attempt.Answered, &attempt.TakenAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}
