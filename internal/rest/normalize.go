package rest

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"quiz-gateway/internal/domain"
)

// The backend is inconsistent about field-name casing (Success vs success,
// correct_answer_count vs correctAnswerCount). All responses pass through
// this normalization boundary; nothing downstream branches on casing.

// envelope is the canonical response shape.
type envelope struct {
	Success bool
	Data    json.RawMessage
	Message string
}

type object map[string]json.RawMessage

func decodeObject(raw []byte) (object, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(object, len(m))
	for k, v := range m {
		out[canonKey(k)] = v
	}
	return out, nil
}

// canonKey folds case and underscores, so "Correct_Answer_Count",
// "correctAnswerCount" and "correct_answer_count" all collide.
func canonKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

func (o object) raw(key string) (json.RawMessage, bool) {
	v, ok := o[canonKey(key)]
	return v, ok
}

func (o object) str(keys ...string) string {
	for _, key := range keys {
		if v, ok := o.raw(key); ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				return s
			}
		}
	}
	return ""
}

func (o object) num(keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := o.raw(key); ok {
			var n float64
			if err := json.Unmarshal(v, &n); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func (o object) boolean(keys ...string) bool {
	for _, key := range keys {
		if v, ok := o.raw(key); ok {
			var b bool
			if err := json.Unmarshal(v, &b); err == nil {
				return b
			}
		}
	}
	return false
}

func decodeEnvelope(raw []byte) (envelope, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return envelope{}, err
	}
	env := envelope{
		Success: obj.boolean("success"),
		Message: obj.str("message"),
	}
	if data, ok := obj.raw("data"); ok {
		env.Data = data
	}
	return env, nil
}

func decodeQuiz(raw json.RawMessage) (domain.Quiz, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.Quiz{}, domain.ErrServer
	}
	quiz := domain.Quiz{
		Title:       obj.str("title"),
		Description: obj.str("description"),
	}
	if id, ok := obj.num("id"); ok {
		quiz.ID = int64(id)
	}
	return quiz, nil
}

func decodeQuestion(raw json.RawMessage) (domain.Question, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.Question{}, domain.ErrServer
	}
	question := domain.Question{
		Prompt: obj.str("question", "soal", "prompt"),
	}
	if id, ok := obj.num("id"); ok {
		question.ID = int64(id)
	}
	if id, ok := obj.num("quiz_id"); ok {
		question.QuizID = int64(id)
	}
	if options, ok := obj.raw("options"); ok {
		question.Options = decodeOptions(options)
	}
	return question, nil
}

// decodeOptions accepts the embedded options payload either as a JSON object
// keyed by label or as a string containing one. A malformed payload yields an
// empty set: the question becomes unanswerable but the session goes on.
func decodeOptions(raw json.RawMessage) []domain.Option {
	var embedded string
	if err := json.Unmarshal(raw, &embedded); err == nil {
		raw = []byte(embedded)
	}
	var byLabel map[string]string
	if err := json.Unmarshal(raw, &byLabel); err != nil {
		logrus.Warn("undecodable question options, leaving option set empty")
		return nil
	}
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	options := make([]domain.Option, 0, len(labels))
	for _, label := range labels {
		options = append(options, domain.Option{Label: label, Text: byLabel[label]})
	}
	return options
}

func decodeSummary(raw json.RawMessage) domain.ScoreSummary {
	obj, err := decodeObject(raw)
	if err != nil {
		return domain.ScoreSummary{}
	}
	var summary domain.ScoreSummary
	if score, ok := obj.num("score"); ok {
		summary.Score = score
	}
	if count, ok := obj.num("correct_answer_count"); ok {
		summary.CorrectCount = int(count)
	}
	return summary
}
