package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Answer is the decoded, typed form of a raw submitted payload. Each question
// type owns its own variant; raw JSON never reaches the strategies.
type Answer interface{ isAnswer() }

// ChoiceAnswer is a canonical (unshuffled) option index.
type ChoiceAnswer struct{ Index int }

// OrderingAnswer is the submitted option sequence.
type OrderingAnswer struct{ Sequence []string }

// MatchingAnswer maps left-hand items to the chosen right-hand values.
type MatchingAnswer struct{ Pairs map[string]string }

// TextAnswer carries free text (short answer, essay).
type TextAnswer struct{ Text string }

func (ChoiceAnswer) isAnswer()   {}
func (OrderingAnswer) isAnswer() {}
func (MatchingAnswer) isAnswer() {}
func (TextAnswer) isAnswer()     {}

var errEmptyAnswer = errors.New("empty answer payload")

// DecodeAnswer parses a raw payload into the variant for the question type.
// Choice indices are accepted in numeric or numeric-string form; everything
// downstream sees an int only.
func DecodeAnswer(t QuestionType, raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errEmptyAnswer
	}
	switch t {
	case TypeMultipleChoice, TypeTrueFalse:
		return decodeChoice(raw)
	case TypeOrdering:
		return decodeOrdering(raw)
	case TypeMatching:
		return decodeMatching(raw)
	case TypeShortAnswer, TypeEssay:
		return decodeText(raw)
	default:
		return nil, fmt.Errorf("unknown question type %q", t)
	}
}

func decodeChoice(raw json.RawMessage) (Answer, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return ChoiceAnswer{Index: n}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("choice answer %q is not an index", s)
		}
		return ChoiceAnswer{Index: n}, nil
	}
	return nil, errors.New("choice answer must be an option index")
}

func decodeOrdering(raw json.RawMessage) (Answer, error) {
	var seq []string
	if err := json.Unmarshal(raw, &seq); err == nil {
		return OrderingAnswer{Sequence: seq}, nil
	}
	// tolerate mixed-type arrays from loosely typed clients
	var anys []interface{}
	if err := json.Unmarshal(raw, &anys); err != nil {
		return nil, errors.New("ordering answer must be an array")
	}
	seq = make([]string, 0, len(anys))
	for _, v := range anys {
		seq = append(seq, stringify(v))
	}
	return OrderingAnswer{Sequence: seq}, nil
}

func decodeMatching(raw json.RawMessage) (Answer, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.New("matching answer must be an object")
	}
	pairs := make(map[string]string, len(m))
	for k, v := range m {
		pairs[k] = stringify(v)
	}
	return MatchingAnswer{Pairs: pairs}, nil
}

func decodeText(raw json.RawMessage) (Answer, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return TextAnswer{Text: s}, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.New("text answer must be a string")
	}
	return TextAnswer{Text: stringify(v)}, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
