package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// The fixed keys an exam session persists under. All five are written on
// Save and removed together on Clear; a client that finds no question-order
// key starts fresh.
const (
	KeyCurrentIndex  = "exam_current_index"
	KeyAnswers       = "exam_answers"
	KeyTimeLeft      = "exam_time_left"
	KeyQuestionOrder = "exam_shuffled_questions"
	KeyOptionMaps    = "exam_shuffled_options"
)

// Store persists session state between page loads.
type Store interface {
	// Load returns the saved state, or ok=false for a fresh start.
	Load() (st *State, ok bool, err error)
	Save(st *State) error
	Clear() error
}

// FSStore keeps each session key in its own file under a base directory,
// mirroring the fixed-key layout a browser client uses in local storage.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data/session"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// shuffleState groups the per-question shuffle bookkeeping persisted under
// KeyOptionMaps.
type shuffleState struct {
	Choice        map[int64]OptionMap `json:"choice"`
	Ordering      map[int64][]string  `json:"ordering"`
	MatchingRight map[int64][]string  `json:"matching_right"`
}

// orderState is what KeyQuestionOrder holds: the shuffled id order plus the
// course the session was started for.
type orderState struct {
	Course        string  `json:"course"`
	QuestionOrder []int64 `json:"question_order"`
}

func (s *FSStore) Load() (*State, bool, error) {
	var order orderState
	if err := s.readKey(KeyQuestionOrder, &order); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	st := &State{
		Course:        order.Course,
		QuestionOrder: order.QuestionOrder,
		Answers:       map[string]json.RawMessage{},
	}
	var shuf shuffleState
	if err := s.readKey(KeyOptionMaps, &shuf); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	st.ChoiceMaps = shuf.Choice
	st.OrderingSeqs = shuf.Ordering
	st.MatchingRight = shuf.MatchingRight
	if st.ChoiceMaps == nil {
		st.ChoiceMaps = map[int64]OptionMap{}
	}
	if st.OrderingSeqs == nil {
		st.OrderingSeqs = map[int64][]string{}
	}
	if st.MatchingRight == nil {
		st.MatchingRight = map[int64][]string{}
	}

	if err := s.readKey(KeyAnswers, &st.Answers); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	if err := s.readKey(KeyCurrentIndex, &st.CurrentIndex); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	if err := s.readKey(KeyTimeLeft, &st.TimeLeft); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	return st, true, nil
}

func (s *FSStore) Save(st *State) error {
	if err := s.writeKey(KeyQuestionOrder, orderState{Course: st.Course, QuestionOrder: st.QuestionOrder}); err != nil {
		return err
	}
	shuf := shuffleState{Choice: st.ChoiceMaps, Ordering: st.OrderingSeqs, MatchingRight: st.MatchingRight}
	if err := s.writeKey(KeyOptionMaps, shuf); err != nil {
		return err
	}
	if err := s.writeKey(KeyAnswers, st.Answers); err != nil {
		return err
	}
	if err := s.writeKey(KeyCurrentIndex, st.CurrentIndex); err != nil {
		return err
	}
	return s.writeKey(KeyTimeLeft, st.TimeLeft)
}

// Clear removes all five keys. Called only after a successful submit, so a
// failed submit keeps the buffer intact for retry.
func (s *FSStore) Clear() error {
	for _, key := range []string{KeyCurrentIndex, KeyAnswers, KeyTimeLeft, KeyQuestionOrder, KeyOptionMaps} {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.base, filepath.Clean(key)+".json")
}

func (s *FSStore) readKey(key string, v interface{}) error {
	buf, err := os.ReadFile(s.path(key))
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}

func (s *FSStore) writeKey(key string, v interface{}) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(key), buf, 0o644)
}
