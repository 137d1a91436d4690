package exam_test

import (
	"context"
	"testing"

	"github.com/ujian-kita/examportal/internal/exam"
)

func TestGetSettingsCreatesDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	set, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if set.ExamDuration != 60 || set.PassingScore != 70 {
		t.Fatalf("defaults: %+v", set)
	}
	if len(set.AvailableCourses) == 0 || len(set.ActiveCourses) == 0 {
		t.Fatalf("course lists empty: %+v", set)
	}

	// a second read returns the same row, not a new one
	again, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != set.ID {
		t.Fatalf("settings row duplicated: %d vs %d", again.ID, set.ID)
	}
}

func TestUpdateSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cur, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cur.ExamDuration = 90
	cur.CourseDurations = map[string]int{"Sistem Jaringan": 120}
	cur.ActiveCourses = []string{"Sistem Jaringan"}

	if _, err := store.UpdateSettings(ctx, cur); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ExamDuration != 90 {
		t.Fatalf("duration: %d", got.ExamDuration)
	}
	if got.CourseDurations["Sistem Jaringan"] != 120 {
		t.Fatalf("durations: %v", got.CourseDurations)
	}
}

func TestSettingsDurationFor(t *testing.T) {
	set := exam.Settings{
		ExamDuration:    60,
		CourseDurations: map[string]int{"Sistem  Jaringan": 120},
	}
	if got := set.DurationFor("sistem jaringan"); got != 120 {
		t.Fatalf("override: %d", got)
	}
	if got := set.DurationFor("Etika Profesi"); got != 60 {
		t.Fatalf("fallback: %d", got)
	}
}
