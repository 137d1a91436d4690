package grading_test

import (
	"encoding/json"
	"testing"

	"github.com/ujian-kita/examportal/internal/grading"
)

func TestDecodeAnswerChoice(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`2`, 2, false},
		{`"2"`, 2, false},
		{`" 3 "`, 3, false},
		{`"abc"`, 0, true},
		{`[1]`, 0, true},
		{`null`, 0, true},
		{``, 0, true},
	}
	for _, tc := range tests {
		ans, err := grading.DecodeAnswer(grading.TypeMultipleChoice, json.RawMessage(tc.raw))
		if tc.wantErr {
			if err == nil {
				t.Errorf("DecodeAnswer(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecodeAnswer(%q): %v", tc.raw, err)
			continue
		}
		if got := ans.(grading.ChoiceAnswer).Index; got != tc.want {
			t.Errorf("DecodeAnswer(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeAnswerOrdering(t *testing.T) {
	ans, err := grading.DecodeAnswer(grading.TypeOrdering, json.RawMessage(`["b","a"]`))
	if err != nil {
		t.Fatal(err)
	}
	seq := ans.(grading.OrderingAnswer).Sequence
	if len(seq) != 2 || seq[0] != "b" || seq[1] != "a" {
		t.Fatalf("got %v", seq)
	}

	// mixed-type arrays are coerced to strings
	ans, err = grading.DecodeAnswer(grading.TypeOrdering, json.RawMessage(`[1,"two",true]`))
	if err != nil {
		t.Fatal(err)
	}
	seq = ans.(grading.OrderingAnswer).Sequence
	if seq[0] != "1" || seq[1] != "two" || seq[2] != "true" {
		t.Fatalf("got %v", seq)
	}

	if _, err := grading.DecodeAnswer(grading.TypeOrdering, json.RawMessage(`"not an array"`)); err == nil {
		t.Fatal("expected error for non-array ordering payload")
	}
}

func TestDecodeAnswerMatching(t *testing.T) {
	ans, err := grading.DecodeAnswer(grading.TypeMatching, json.RawMessage(`{"a":"x","b":2}`))
	if err != nil {
		t.Fatal(err)
	}
	pairs := ans.(grading.MatchingAnswer).Pairs
	if pairs["a"] != "x" || pairs["b"] != "2" {
		t.Fatalf("got %v", pairs)
	}

	if _, err := grading.DecodeAnswer(grading.TypeMatching, json.RawMessage(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object matching payload")
	}
}

func TestDecodeAnswerText(t *testing.T) {
	ans, err := grading.DecodeAnswer(grading.TypeEssay, json.RawMessage(`"jawaban saya"`))
	if err != nil {
		t.Fatal(err)
	}
	if got := ans.(grading.TextAnswer).Text; got != "jawaban saya" {
		t.Fatalf("got %q", got)
	}

	// numbers are tolerated as text
	ans, err = grading.DecodeAnswer(grading.TypeShortAnswer, json.RawMessage(`42`))
	if err != nil {
		t.Fatal(err)
	}
	if got := ans.(grading.TextAnswer).Text; got != "42" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeAnswerUnknownType(t *testing.T) {
	if _, err := grading.DecodeAnswer(grading.QuestionType("riddle"), json.RawMessage(`"x"`)); err == nil {
		t.Fatal("expected error for unknown question type")
	}
}
