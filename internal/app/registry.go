package app

import "sync"

// AnswerRegistry maps question id -> selected option label for one session.
// Set is an idempotent upsert: at most one entry per question, later writes
// replace earlier ones. Pure in-memory, no I/O.
type AnswerRegistry struct {
	mu      sync.RWMutex
	answers map[int64]string
}

func NewAnswerRegistry() *AnswerRegistry {
	return &AnswerRegistry{answers: make(map[int64]string)}
}

func (r *AnswerRegistry) Set(questionID int64, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[questionID] = label
}

func (r *AnswerRegistry) Get(questionID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	label, ok := r.answers[questionID]
	return label, ok
}

func (r *AnswerRegistry) Has(questionID int64) bool {
	_, ok := r.Get(questionID)
	return ok
}

// Count reports how many distinct questions have an answer.
func (r *AnswerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.answers)
}

// Snapshot returns a copy safe to iterate while the registry keeps mutating.
func (r *AnswerRegistry) Snapshot() map[int64]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]string, len(r.answers))
	for id, label := range r.answers {
		out[id] = label
	}
	return out
}
