// Package rest implements the retrying, auth-aware client for the upstream
// quiz API. Every data operation in the gateway goes through it.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-gateway/internal/domain"
)

// CredentialSource is the slice of the credential store the client needs:
// the token for outgoing requests and eviction on auth failure.
type CredentialSource interface {
	Token() (string, bool)
	Clear() error
}

// Client wraps HTTP calls with content-type validation, unauthorized-session
// detection, and bounded retry with a fixed delay.
type Client struct {
	base             string
	http             *http.Client
	creds            CredentialSource
	retries          int
	delay            time.Duration
	sleep            func(time.Duration)
	onSessionExpired func()
}

type Option func(*Client)

// WithRetries sets how many additional attempts follow a transient failure.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithRetryDelay sets the fixed inter-attempt delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSleep replaces the delay function; tests pass a no-op.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// OnSessionExpired registers a callback fired after credentials are cleared
// on an auth failure, so the embedding layer can redirect to login.
func OnSessionExpired(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

func NewClient(base string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		creds:   creds,
		retries: 3,
		delay:   time.Second,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one API call with retry. Auth failures short-circuit the
// retry loop; everything else transient is attempted c.retries more times
// before the last error is surfaced.
func (c *Client) request(ctx context.Context, method, path string, body interface{}) (envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			logrus.WithFields(logrus.Fields{"path": path, "attempt": attempt + 1}).
				Debug("retrying upstream request")
			c.sleep(c.delay)
		}
		env, err := c.do(ctx, method, path, payload)
		if err == nil {
			return env, nil
		}
		if errors.Is(err, domain.ErrSessionExpired) {
			return envelope{}, err
		}
		lastErr = err
	}
	return envelope{}, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (envelope, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.creds.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	// Auth failures win over everything else, including bad content types.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.expireSession()
		return envelope{}, domain.ErrSessionExpired
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return envelope{}, fmt.Errorf("%w: unexpected content type %q", domain.ErrServer, ct)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: undecodable response body", domain.ErrServer)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return envelope{}, fmt.Errorf("%w: %s", domain.ErrServer, msg)
	}
	return env, nil
}

func (c *Client) expireSession() {
	_ = c.creds.Clear()
	logrus.Warn("bearer token rejected upstream, credentials cleared")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// ListQuizzes returns the quiz catalog.
func (c *Client) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	env, err := c.request(ctx, http.MethodGet, "/quiz/get-quiz", nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, notFound(env, "quiz catalog unavailable")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, fmt.Errorf("%w: malformed quiz list", domain.ErrServer)
	}
	quizzes := make([]domain.Quiz, 0, len(items))
	for _, raw := range items {
		quiz, err := decodeQuiz(raw)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// GetQuiz returns metadata for one quiz.
func (c *Client) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	env, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/quiz/get-quiz/%d", quizID), nil)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !env.Success {
		return domain.Quiz{}, notFound(env, "quiz not found")
	}
	return decodeQuiz(env.Data)
}

// Questions returns the question list of a quiz. An empty list is not an
// error here; the session controller maps it to its empty state.
func (c *Client) Questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	env, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/question/get-question/%d", quizID), nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, notFound(env, "questions not found")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, fmt.Errorf("%w: malformed question list", domain.ErrServer)
	}
	questions := make([]domain.Question, 0, len(items))
	for _, raw := range items {
		question, err := decodeQuestion(raw)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// SubmitAnswers posts one batch of answer records. The batch, not the
// individual answer, is the unit of retry.
func (c *Client) SubmitAnswers(ctx context.Context, records []domain.AnswerRecord) (domain.ScoreSummary, error) {
	env, err := c.request(ctx, http.MethodPost, "/result/submit-answer", records)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "submission rejected"
		}
		return domain.ScoreSummary{}, fmt.Errorf("%w: %s", domain.ErrServer, msg)
	}
	return decodeSummary(env.Data), nil
}

// Result fetches a previously recorded score.
func (c *Client) Result(ctx context.Context, userID, quizID int64) (domain.ScoreSummary, error) {
	env, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/result/%d/%d", userID, quizID), nil)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	if !env.Success {
		return domain.ScoreSummary{}, notFound(env, "result not found")
	}
	return decodeSummary(env.Data), nil
}

func notFound(env envelope, fallback string) error {
	msg := env.Message
	if msg == "" {
		msg = fallback
	}
	return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
}
