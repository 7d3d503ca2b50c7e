package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-gateway/internal/domain"
)

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

func (f *fakeCreds) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeCreds) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared = true
	return nil
}

func (f *fakeCreds) wasCleared() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeCreds, *int) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	sleeps := 0
	creds := &fakeCreds{token: "tok-1"}
	client := NewClient(server.URL, creds, WithSleep(func(time.Duration) { sleeps++ }))
	return client, creds, &sleeps
}

func TestTransientFailuresAreRetriedFourTimesTotal(t *testing.T) {
	hits := 0
	client, _, sleeps := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "boom"})
	})

	_, err := client.ListQuizzes(context.Background())
	if !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if hits != 4 {
		t.Fatalf("expected 4 attempts, got %d", hits)
	}
	if *sleeps != 3 {
		t.Fatalf("expected 3 inter-attempt delays, got %d", *sleeps)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("terminal error should carry the last server message, got %q", err)
	}
}

func TestRecoveryWithinRetryBudget(t *testing.T) {
	hits := 0
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			writeJSON(w, http.StatusBadGateway, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": 1, "title": "Go", "description": "basics"}},
		})
	})

	quizzes, err := client.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if hits != 3 {
		t.Fatalf("expected success on third attempt, got %d", hits)
	}
	if len(quizzes) != 1 || quizzes[0].ID != 1 || quizzes[0].Title != "Go" {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
}

func TestUnauthorizedShortCircuitsRetriesAndClearsCredentials(t *testing.T) {
	hits := 0
	expired := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "expired"})
	}))
	defer server.Close()

	creds := &fakeCreds{token: "tok-1"}
	client := NewClient(server.URL, creds,
		WithSleep(func(time.Duration) {}),
		OnSessionExpired(func() { expired = true }))

	_, err := client.ListQuizzes(context.Background())
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if hits != 2 {
		t.Fatalf("401 must short-circuit remaining retries, got %d attempts", hits)
	}
	if !creds.wasCleared() {
		t.Fatalf("credentials must be cleared on auth failure")
	}
	if !expired {
		t.Fatalf("session-expired callback not invoked")
	}
}

func TestUnauthorizedWinsOverBadContentType(t *testing.T) {
	hits := 0
	client, creds, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<html>login</html>"))
	})

	_, err := client.ListQuizzes(context.Background())
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected single attempt, got %d", hits)
	}
	if !creds.wasCleared() {
		t.Fatalf("credentials must be cleared")
	}
}

func TestNonJSONResponseIsRetriedAsServerError(t *testing.T) {
	hits := 0
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	})

	_, err := client.ListQuizzes(context.Background())
	if !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if hits != 4 {
		t.Fatalf("expected 4 attempts, got %d", hits)
	}
}

func TestBearerTokenAttachedWhenPresent(t *testing.T) {
	var gotAuth string
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	})

	if _, err := client.ListQuizzes(context.Background()); err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestQuestionOptionsDecoding(t *testing.T) {
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/question/get-question/9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				// options embedded as a serialized string
				{"id": 1, "quiz_id": 9, "question": "capital of France?", "options": `{"B":"Rome","A":"Paris"}`},
				// options as a plain object, prompt under the legacy key
				{"id": 2, "quiz_id": 9, "soal": "2+2?", "options": map[string]string{"A": "3", "B": "4"}},
				// malformed options must not fail the whole list
				{"id": 3, "quiz_id": 9, "question": "broken", "options": "{not json"},
			},
		})
	})

	questions, err := client.Questions(context.Background(), 9)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}

	first := questions[0]
	if first.Prompt != "capital of France?" {
		t.Fatalf("unexpected prompt %q", first.Prompt)
	}
	if len(first.Options) != 2 || first.Options[0].Label != "A" || first.Options[0].Text != "Paris" {
		t.Fatalf("expected options ordered by label, got %+v", first.Options)
	}

	if questions[1].Prompt != "2+2?" || len(questions[1].Options) != 2 {
		t.Fatalf("legacy prompt key or object options not decoded: %+v", questions[1])
	}

	if len(questions[2].Options) != 0 {
		t.Fatalf("malformed options must decode to an empty set, got %+v", questions[2].Options)
	}
}

func TestSubmitAnswersPostsBatchAndNormalizesCasing(t *testing.T) {
	var gotMethod, gotPath string
	var gotBatch []domain.AnswerRecord
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBatch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		// Backend replies with capitalized field names on this endpoint.
		writeJSON(w, http.StatusOK, map[string]any{
			"Success": true,
			"Data":    map[string]any{"Score": 67, "Correct_Answer_Count": 2},
		})
	})

	records := []domain.AnswerRecord{
		{QuestionID: 1, UserID: 7, Answer: "A"},
		{QuestionID: 3, UserID: 7, Answer: "B"},
	}
	summary, err := client.SubmitAnswers(context.Background(), records)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/result/submit-answer" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if len(gotBatch) != 2 || gotBatch[0].QuestionID != 1 || gotBatch[1].Answer != "B" {
		t.Fatalf("unexpected batch %+v", gotBatch)
	}
	if summary.Score != 67 || summary.CorrectCount != 2 {
		t.Fatalf("casing variants not normalized: %+v", summary)
	}
}

func TestMissingScoreFieldsDefaultToZero(t *testing.T) {
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
	})

	summary, err := client.SubmitAnswers(context.Background(), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Score != 0 || summary.CorrectCount != 0 {
		t.Fatalf("absent fields must read as zero, got %+v", summary)
	}
}

func TestResultNotFound(t *testing.T) {
	client, _, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "no result"})
	})

	_, err := client.Result(context.Background(), 7, 9)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
