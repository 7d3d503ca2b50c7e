package app

import (
	"context"
	"fmt"
	"sort"

	"quiz-gateway/internal/domain"
)

// submitAnswers is the submission pipeline: build one record per registry
// entry, validate the whole batch locally, and post it in a single request.
func submitAnswers(ctx context.Context, api QuizAPI, registry *AnswerRegistry, userID int64) (domain.ScoreSummary, error) {
	records := buildRecords(registry, userID)
	if err := validateRecords(records); err != nil {
		return domain.ScoreSummary{}, err
	}
	return api.SubmitAnswers(ctx, records)
}

// buildRecords turns the registry into submission records. Unanswered
// questions are simply absent, never sent as empty answers. Records are
// ordered by question id so payloads are deterministic.
func buildRecords(registry *AnswerRegistry, userID int64) []domain.AnswerRecord {
	answers := registry.Snapshot()
	ids := make([]int64, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]domain.AnswerRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, domain.AnswerRecord{
			QuestionID: id,
			UserID:     userID,
			Answer:     answers[id],
		})
	}
	return records
}

// validateRecords rejects the whole batch on the first malformed record;
// nothing is sent on a validation failure.
func validateRecords(records []domain.AnswerRecord) error {
	for _, record := range records {
		if record.QuestionID <= 0 {
			return fmt.Errorf("%w: question id must be positive", domain.ErrValidation)
		}
		if record.UserID <= 0 {
			return fmt.Errorf("%w: user id must be positive", domain.ErrValidation)
		}
		if record.Answer == "" {
			return fmt.Errorf("%w: empty answer for question %d", domain.ErrValidation, record.QuestionID)
		}
	}
	return nil
}
