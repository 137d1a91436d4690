package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeMatching       QuestionType = "matching"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeEssay          QuestionType = "essay"
	TypeOrdering       QuestionType = "ordering"
)

// DefaultPoints applies when a question has no point value set.
const DefaultPoints = 10

// Q is a minimal view of a question needed for grading.
// Keep this in sync with whatever fields your store uses.
type Q struct {
	ID           int64
	Type         QuestionType
	Options      []string // canonical order; for ordering this IS the correct sequence
	CorrectIndex int
	CorrectText  string // short-answer key, essay reference, or matching pairs JSON
	Points       int
}

// Result is the outcome of grading a single question response.
type Result struct {
	Earned int
	Max    int
}

// Strategy grades a single question against its typed answer.
type Strategy interface {
	Grade(q Q, ans Answer) Result
}

// Summary is the aggregate outcome of grading one submission.
type Summary struct {
	Earned     int `json:"earned"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Grader routes by question type to the correct Strategy.
type Grader struct {
	strategies map[QuestionType]Strategy
}

// EssayFullCreditRatio is the keyword-match fraction at which an essay earns
// full points instead of proportional credit.
const EssayFullCreditRatio = 0.3

// NewGrader installs the built-in strategies.
func NewGrader() *Grader {
	return &Grader{
		strategies: map[QuestionType]Strategy{
			TypeMultipleChoice: choiceStrategy{},
			TypeTrueFalse:      choiceStrategy{},
			TypeOrdering:       orderingStrategy{},
			TypeMatching:       matchingStrategy{},
			TypeShortAnswer:    shortAnswerStrategy{},
			TypeEssay:          essayStrategy{},
		},
	}
}

// GradeExam scores a raw answer map against a question set. It is a pure
// function of its inputs: answers must already be in canonical (unshuffled)
// form. Unanswered, malformed and unknown-type responses earn zero but still
// count toward the total.
func (g *Grader) GradeExam(questions []Q, answers map[string]json.RawMessage) Summary {
	earned, total := 0, 0
	for _, q := range questions {
		q.Points = pointsOr(q.Points)
		total += q.Points

		raw, ok := answers[strconv.FormatInt(q.ID, 10)]
		if !ok {
			continue
		}
		ans, err := DecodeAnswer(q.Type, raw)
		if err != nil {
			continue
		}
		s, ok := g.strategies[q.Type]
		if !ok {
			continue
		}
		earned += s.Grade(q, ans).Earned
	}

	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(earned) / float64(total) * 100))
	}
	return Summary{Earned: earned, Total: total, Percentage: pct}
}

func pointsOr(p int) int {
	if p <= 0 {
		return DefaultPoints
	}
	return p
}

// --- Strategies ---

type choiceStrategy struct{}

func (choiceStrategy) Grade(q Q, ans Answer) Result {
	res := Result{Max: q.Points}
	a, ok := ans.(ChoiceAnswer)
	if !ok {
		return res
	}
	if a.Index == q.CorrectIndex {
		res.Earned = q.Points
	}
	return res
}

type orderingStrategy struct{}

// Full credit only for the exact canonical sequence; no partial credit.
func (orderingStrategy) Grade(q Q, ans Answer) Result {
	res := Result{Max: q.Points}
	a, ok := ans.(OrderingAnswer)
	if !ok || len(a.Sequence) != len(q.Options) {
		return res
	}
	for i, opt := range q.Options {
		if a.Sequence[i] != opt {
			return res
		}
	}
	res.Earned = q.Points
	return res
}

type matchingStrategy struct{}

// All-or-nothing: every key of the answer key must be matched, compared in
// normalized form. A missing or mismatched pair zeroes the question.
func (matchingStrategy) Grade(q Q, ans Answer) Result {
	res := Result{Max: q.Points}
	a, ok := ans.(MatchingAnswer)
	if !ok {
		return res
	}
	key := ParseMatchingKey(q.CorrectText)
	if len(key) == 0 {
		return res
	}
	for left, want := range key {
		if Normalize(a.Pairs[left]) != Normalize(want) {
			return res
		}
	}
	res.Earned = q.Points
	return res
}

// ParseMatchingKey decodes the left→right answer key stored on a matching
// question. Malformed keys yield an empty map (the question grades to zero).
func ParseMatchingKey(correctText string) map[string]string {
	var key map[string]string
	if err := json.Unmarshal([]byte(correctText), &key); err != nil {
		return nil
	}
	return key
}

type shortAnswerStrategy struct{}

func (shortAnswerStrategy) Grade(q Q, ans Answer) Result {
	res := Result{Max: q.Points}
	a, ok := ans.(TextAnswer)
	if !ok {
		return res
	}
	if fold(a.Text) == fold(q.CorrectText) {
		res.Earned = q.Points
	}
	return res
}

type essayStrategy struct{}

// Essays auto-grade against an optional reference text. With no reference any
// non-empty answer earns full points. With a reference, the fraction of its
// words longer than 3 chars found in the answer decides: >= 0.30 full points,
// otherwise round(points * fraction). A reference with no qualifying words
// falls back to whole-text containment.
func (essayStrategy) Grade(q Q, ans Answer) Result {
	res := Result{Max: q.Points}
	a, ok := ans.(TextAnswer)
	if !ok {
		return res
	}
	answer := fold(a.Text)
	if answer == "" {
		return res
	}
	ref := fold(q.CorrectText)
	if ref == "" {
		res.Earned = q.Points
		return res
	}

	words := referenceWords(ref)
	if len(words) == 0 {
		if strings.Contains(answer, ref) {
			res.Earned = q.Points
		}
		return res
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(answer, w) {
			matched++
		}
	}
	ratio := float64(matched) / float64(len(words))
	switch {
	case ratio >= EssayFullCreditRatio:
		res.Earned = q.Points
	case ratio > 0:
		res.Earned = int(math.Round(float64(q.Points) * ratio))
	}
	return res
}
