package session

import (
	"encoding/json"
	"math/rand"
	"strconv"

	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/grading"
)

// OptionMap is the bidirectional index mapping for a shuffled choice
// question: answers are displayed in shuffled order but recorded in canonical
// order, so the server never sees display positions.
type OptionMap struct {
	Options            []string    `json:"options"` // display order
	DisplayToCanonical map[int]int `json:"display_to_canonical"`
	CanonicalToDisplay map[int]int `json:"canonical_to_display"`
}

// State is one in-progress exam session as held by the client: the per-session
// shuffles, the answer buffer (canonical form), the question pointer and the
// countdown. It round-trips through a Store so a reload resumes mid-exam
// without a server call.
type State struct {
	Course        string                     `json:"course"`
	QuestionOrder []int64                    `json:"question_order"`
	ChoiceMaps    map[int64]OptionMap        `json:"choice_maps"`
	OrderingSeqs  map[int64][]string         `json:"ordering_seqs"`
	MatchingRight map[int64][]string         `json:"matching_right"`
	CurrentIndex  int                        `json:"current_index"`
	Answers       map[string]json.RawMessage `json:"answers"`
	TimeLeft      int                        `json:"time_left"` // seconds
}

// New builds a fresh session over a course's question set: question order
// shuffled, choice options shuffled with bidirectional maps, ordering
// questions given a shuffled starting sequence (distinct from the graded
// canonical one), matching right-hand lists shuffled once and frozen.
func New(questions []exam.PublicQuestion, durationSec int, rng *rand.Rand) *State {
	st := &State{
		ChoiceMaps:    map[int64]OptionMap{},
		OrderingSeqs:  map[int64][]string{},
		MatchingRight: map[int64][]string{},
		Answers:       map[string]json.RawMessage{},
		TimeLeft:      durationSec,
	}

	order := make([]int64, len(questions))
	byID := make(map[int64]exam.PublicQuestion, len(questions))
	for i, q := range questions {
		order[i] = q.ID
		byID[q.ID] = q
		if st.Course == "" {
			st.Course = q.CourseName
		}
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	st.QuestionOrder = order

	for _, q := range questions {
		switch q.Type {
		case grading.TypeMultipleChoice, grading.TypeTrueFalse:
			st.ChoiceMaps[q.ID] = shuffleOptions(q.Options, rng)
		case grading.TypeOrdering:
			st.OrderingSeqs[q.ID] = shuffledCopy(q.Options, rng)
		case grading.TypeMatching:
			st.MatchingRight[q.ID] = shuffledCopy(q.MatchingRight, rng)
		}
	}
	return st
}

func shuffleOptions(options []string, rng *rand.Rand) OptionMap {
	idx := make([]int, len(options))
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	m := OptionMap{
		Options:            make([]string, len(options)),
		DisplayToCanonical: make(map[int]int, len(options)),
		CanonicalToDisplay: make(map[int]int, len(options)),
	}
	for display, canonical := range idx {
		m.Options[display] = options[canonical]
		m.DisplayToCanonical[display] = canonical
		m.CanonicalToDisplay[canonical] = display
	}
	return m
}

func shuffledCopy(in []string, rng *rand.Rand) []string {
	out := append([]string(nil), in...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// RecordChoice buffers a choice answer given its displayed position. The
// stored value is the canonical index the grading engine expects.
func (s *State) RecordChoice(questionID int64, displayedIndex int) bool {
	m, ok := s.ChoiceMaps[questionID]
	if !ok {
		return false
	}
	canonical, ok := m.DisplayToCanonical[displayedIndex]
	if !ok {
		return false
	}
	s.Answers[formatID(questionID)] = json.RawMessage(strconv.Itoa(canonical))
	return true
}

// DisplayedChoice maps a buffered canonical answer back to its displayed
// position, for re-rendering after a resume.
func (s *State) DisplayedChoice(questionID int64) (int, bool) {
	raw, ok := s.Answers[formatID(questionID)]
	if !ok {
		return 0, false
	}
	var canonical int
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return 0, false
	}
	m, ok := s.ChoiceMaps[questionID]
	if !ok {
		return canonical, true
	}
	display, ok := m.CanonicalToDisplay[canonical]
	return display, ok
}

// RecordAnswer buffers a non-choice answer payload as-is (ordering sequences,
// matching pair maps, free text).
func (s *State) RecordAnswer(questionID int64, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.Answers[formatID(questionID)] = raw
	return nil
}

func (s *State) AnsweredCount() int { return len(s.Answers) }

func (s *State) Advance() {
	if s.CurrentIndex < len(s.QuestionOrder)-1 {
		s.CurrentIndex++
	}
}

func (s *State) Back() {
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
