// Package app contains the core quiz-taking use cases: the timed session
// controller, the answer registry, and the submission pipeline.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quiz-gateway/internal/credentials"
	"quiz-gateway/internal/domain"
)

// QuizAPI is the slice of the upstream client the session controller needs.
type QuizAPI interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	Questions(ctx context.Context, quizID int64) ([]domain.Question, error)
	SubmitAnswers(ctx context.Context, records []domain.AnswerRecord) (domain.ScoreSummary, error)
}

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseActive     Phase = "active"
	PhaseSubmitting Phase = "submitting"
	PhaseResult     Phase = "result"
	PhaseEmpty      Phase = "empty"
	PhaseFailed     Phase = "failed"
)

// DefaultWindow is the session countdown when the config leaves it unset.
const DefaultWindow = 30 * time.Minute

// Snapshot is the session state handed to presentation layers.
type Snapshot struct {
	ID        string               `json:"id"`
	Phase     Phase                `json:"phase"`
	Quiz      domain.Quiz          `json:"quiz"`
	Questions []domain.Question    `json:"questions,omitempty"`
	Current   int                  `json:"current"`
	Remaining int                  `json:"remaining"`
	Answered  int                  `json:"answered"`
	Answers   map[int64]string     `json:"answers,omitempty"`
	Score     *domain.ScoreSummary `json:"score,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// SessionConfig tunes one session.
type SessionConfig struct {
	// Window is the countdown length; DefaultWindow when zero. Network retry
	// delays do not pause or reset it.
	Window time.Duration
	// OnResult is called once after the session reaches its result phase,
	// outside the session lock. Used for best-effort attempt archiving.
	OnResult func(domain.Attempt)
	// Ticks overrides the countdown source. Production leaves it nil and gets
	// a one-second ticker; tests drive the clock by hand.
	Ticks <-chan time.Time
}

// Session runs one student's timed attempt at a quiz: it loads the question
// set, counts down, tracks answers and navigation, and submits exactly once
// on timeout or user action.
type Session struct {
	id     string
	quizID int64
	api    QuizAPI
	creds  credentials.Store
	cfg    SessionConfig

	mu          sync.Mutex
	phase       Phase
	quiz        domain.Quiz
	questions   []domain.Question
	registry    *AnswerRegistry
	current     int
	remaining   int
	lastErr     string
	score       *domain.ScoreSummary
	autoFired   bool
	closed      bool
	subscribers map[chan Snapshot]struct{}

	stopOnce sync.Once
	done     chan struct{}
}

func NewSession(id string, api QuizAPI, creds credentials.Store, quizID int64, cfg SessionConfig) *Session {
	return &Session{
		id:          id,
		quizID:      quizID,
		api:         api,
		creds:       creds,
		cfg:         cfg,
		phase:       PhaseLoading,
		registry:    NewAnswerRegistry(),
		subscribers: make(map[chan Snapshot]struct{}),
		done:        make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Start loads quiz metadata and questions concurrently, then enters the
// active phase and begins the countdown. An empty question list parks the
// session in its empty state instead.
func (s *Session) Start(ctx context.Context) error {
	var (
		quiz      domain.Quiz
		questions []domain.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.api.GetQuiz(gctx, s.quizID)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.api.Questions(gctx, s.quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.lastErr = err.Error()
		s.broadcastLocked()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if len(questions) == 0 {
		s.phase = PhaseEmpty
		s.broadcastLocked()
		s.mu.Unlock()
		logrus.WithField("quiz", s.quizID).Info("quiz has no questions")
		return nil
	}
	s.quiz = quiz
	s.questions = questions
	s.remaining = int(s.window() / time.Second)
	s.phase = PhaseActive
	s.broadcastLocked()
	s.mu.Unlock()

	go s.countdown()
	return nil
}

func (s *Session) countdown() {
	ticks := s.cfg.Ticks
	if ticks == nil {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		ticks = ticker.C
	}
	for {
		select {
		case <-s.done:
			return
		case <-ticks:
			if s.tick() {
				_ = s.submit(context.Background())
				return
			}
		}
	}
}

// tick decrements the countdown and returns true the single time it expires.
// Ticks outside the active phase, or after expiry, are ignored.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive || s.remaining <= 0 {
		return false
	}
	s.remaining--
	s.broadcastLocked()
	if s.remaining == 0 && !s.autoFired {
		s.autoFired = true
		return true
	}
	return false
}

// Answer records a selection. Only accepted while active, and only for
// questions that are part of the loaded list.
func (s *Session) Answer(questionID int64, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return domain.ErrSessionNotActive
	}
	if !s.hasQuestionLocked(questionID) {
		return domain.ErrQuestionNotFound
	}
	s.registry.Set(questionID, label)
	s.broadcastLocked()
	return nil
}

func (s *Session) hasQuestionLocked(questionID int64) bool {
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			return true
		}
	}
	return false
}

// Next, Prev and Jump move the current question index, clamped to the
// question list. They never touch the timer or the registry.
func (s *Session) Next() { s.move(1) }

func (s *Session) Prev() { s.move(-1) }

func (s *Session) move(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jumpLocked(s.current + delta)
}

func (s *Session) Jump(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jumpLocked(index)
}

func (s *Session) jumpLocked(index int) {
	if s.phase != PhaseActive {
		return
	}
	if index < 0 {
		index = 0
	}
	if max := len(s.questions) - 1; index > max {
		index = max
	}
	if index == s.current {
		return
	}
	s.current = index
	s.broadcastLocked()
}

// Submit runs the submission pipeline. The first of {timer expiry, user
// action} wins: while a submission is in flight, or once the session left the
// active phase, Submit is a no-op.
func (s *Session) Submit(ctx context.Context) error {
	return s.submit(ctx)
}

func (s *Session) submit(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseActive {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseSubmitting
	s.lastErr = ""
	s.broadcastLocked()
	registry := s.registry
	s.mu.Unlock()

	userID, err := credentials.ResolveUserID(s.creds)
	var summary domain.ScoreSummary
	if err == nil {
		summary, err = submitAnswers(ctx, s.api, registry, userID)
	}

	s.mu.Lock()
	if s.closed {
		// The view unmounted while the request was in flight; the outcome is
		// discarded without a state transition.
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.phase = PhaseActive
		s.lastErr = err.Error()
		s.broadcastLocked()
		s.mu.Unlock()
		logrus.WithError(err).WithField("quiz", s.quizID).Warn("submission failed, session stays active")
		return err
	}
	s.phase = PhaseResult
	s.score = &summary
	answered := registry.Count()
	quizID := s.quiz.ID
	hook := s.cfg.OnResult
	s.broadcastLocked()
	s.mu.Unlock()
	s.stop()

	if hook != nil {
		hook(domain.Attempt{
			QuizID:   quizID,
			UserID:   userID,
			Score:    summary.Score,
			Correct:  summary.CorrectCount,
			Answered: answered,
			TakenAt:  time.Now(),
		})
	}
	return nil
}

// Close cancels the countdown and detaches subscribers. An in-flight
// submission is allowed to complete but its result is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
	s.stop()
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Subscribe returns a channel of state snapshots, seeded with the current
// one. The caller must invoke the cancel function to avoid leaks. Subscribing
// to a closed session yields an already-closed channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// Seed while still holding the lock so a concurrent Close cannot close
	// the channel between registration and the first send.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow viewer never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        s.id,
		Phase:     s.phase,
		Quiz:      s.quiz,
		Questions: s.questions,
		Current:   s.current,
		Remaining: s.remaining,
		Answered:  s.registry.Count(),
		Answers:   s.registry.Snapshot(),
		Score:     s.score,
		Error:     s.lastErr,
	}
}

func (s *Session) window() time.Duration {
	if s.cfg.Window > 0 {
		return s.cfg.Window
	}
	return DefaultWindow
}
