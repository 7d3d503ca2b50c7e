package memory

import (
	"context"
	"testing"
	"time"

	"quiz-gateway/internal/domain"
)

type countingSource struct {
	quizCalls     int
	questionCalls int
	listCalls     int
	submitCalls   int
}

func (s *countingSource) ListQuizzes(context.Context) ([]domain.Quiz, error) {
	s.listCalls++
	return []domain.Quiz{{ID: 9, Title: "Go"}}, nil
}

func (s *countingSource) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.quizCalls++
	return domain.Quiz{ID: quizID, Title: "Go"}, nil
}

func (s *countingSource) Questions(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.questionCalls++
	return []domain.Question{{ID: 1, QuizID: quizID, Prompt: "q"}}, nil
}

func (s *countingSource) SubmitAnswers(context.Context, []domain.AnswerRecord) (domain.ScoreSummary, error) {
	s.submitCalls++
	return domain.ScoreSummary{}, nil
}

func (s *countingSource) Result(context.Context, int64, int64) (domain.ScoreSummary, error) {
	return domain.ScoreSummary{}, nil
}

func TestCatalogCacheLoadsOncePerKey(t *testing.T) {
	src := &countingSource{}
	cache := NewCatalogCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.GetQuiz(ctx, 9); err != nil {
			t.Fatalf("get quiz: %v", err)
		}
		if _, err := cache.Questions(ctx, 9); err != nil {
			t.Fatalf("questions: %v", err)
		}
		if _, err := cache.ListQuizzes(ctx); err != nil {
			t.Fatalf("list: %v", err)
		}
	}

	if src.quizCalls != 1 || src.questionCalls != 1 || src.listCalls != 1 {
		t.Fatalf("expected one upstream load per key, got quiz=%d questions=%d list=%d",
			src.quizCalls, src.questionCalls, src.listCalls)
	}
}

func TestCatalogCacheExpires(t *testing.T) {
	src := &countingSource{}
	cache := NewCatalogCache(src, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := cache.GetQuiz(ctx, 9); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	// Past the TTL plus its 10% jitter headroom.
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetQuiz(ctx, 9); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if src.quizCalls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", src.quizCalls)
	}
}

func TestSubmissionsAreNeverCached(t *testing.T) {
	src := &countingSource{}
	cache := NewCatalogCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cache.SubmitAnswers(ctx, nil); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if src.submitCalls != 2 {
		t.Fatalf("submissions must pass through, got %d calls", src.submitCalls)
	}
}
