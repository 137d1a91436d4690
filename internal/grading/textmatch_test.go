package grading

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"Etika  Profesi", "etika profesi"},
		{"\tSistem\nJaringan ", "sistem jaringan"},
		{"ALL", "all"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReferenceWords(t *testing.T) {
	got := referenceWords("the quick brown fox jumps")
	want := []string{"quick", "brown", "jumps"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if ws := referenceWords("ab cd ef"); len(ws) != 0 {
		t.Fatalf("short words should not qualify, got %v", ws)
	}
}
