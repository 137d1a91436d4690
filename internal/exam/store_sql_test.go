package exam_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ujian-kita/examportal/internal/db"
	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/grading"
)

// newTestStore opens a fresh in-memory sqlite DB with the real schema. Each
// test gets its own shared-cache name so tests do not see each other's rows.
func newTestStore(t *testing.T) *exam.SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", t.Name())
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return exam.NewSQLStore(dbh, "sqlite")
}

func seedStudent(t *testing.T, store *exam.SQLStore, nim, class, course string) exam.Student {
	t.Helper()
	st, err := store.CreateStudent(context.Background(), exam.Student{
		NIM:       nim,
		FullName:  "Test " + nim,
		ClassName: class,
		Course:    course,
	})
	if err != nil {
		t.Fatalf("seed student %s: %v", nim, err)
	}
	return st
}

func TestStartSubmissionResumeAndRetake(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	st := seedStudent(t, store, "2021001", "PI 1 A", "Etika Profesi")

	first, err := store.StartSubmission(ctx, st.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.IsCompleted || first.ID == "" {
		t.Fatalf("fresh submission: %+v", first)
	}

	// starting again resumes the same attempt
	again, err := store.StartSubmission(ctx, st.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("resume returned %s, want %s", again.ID, first.ID)
	}

	// once completed, a retake is refused
	if _, err := store.CompleteSubmission(ctx, first.ID, nil, 85); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := store.StartSubmission(ctx, st.ID); !errors.Is(err, exam.ErrRetakeNotAllowed) {
		t.Fatalf("retake: got %v, want ErrRetakeNotAllowed", err)
	}

	// archiving the attempt frees the student to start fresh
	if err := store.ArchiveSubmission(ctx, first.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	fresh, err := store.StartSubmission(ctx, st.ID)
	if err != nil {
		t.Fatalf("start after archive: %v", err)
	}
	if fresh.ID == first.ID {
		t.Fatal("expected a new submission id after archiving")
	}
}

func TestStartSubmissionUnknownStudent(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.StartSubmission(context.Background(), 9999); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCompleteSubmissionFirstWriterWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	st := seedStudent(t, store, "2021002", "PI 1 A", "Etika Profesi")

	sub, err := store.StartSubmission(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}

	answers := func(score string) map[string]json.RawMessage {
		return map[string]json.RawMessage{"1": json.RawMessage(`"` + score + `"`)}
	}

	var wg sync.WaitGroup
	results := make([]exam.Submission, 2)
	scores := []int{70, 95}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := store.CompleteSubmission(ctx, sub.ID, answers(fmt.Sprint(scores[i])), scores[i])
			if err != nil {
				t.Errorf("complete %d: %v", i, err)
				return
			}
			results[i] = out
		}(i)
	}
	wg.Wait()

	// both callers observe the same winning row
	if results[0].Score == nil || results[1].Score == nil {
		t.Fatalf("missing score: %+v %+v", results[0], results[1])
	}
	if *results[0].Score != *results[1].Score {
		t.Fatalf("diverging scores: %d vs %d", *results[0].Score, *results[1].Score)
	}
	if !results[0].IsCompleted || results[0].EndTime == nil {
		t.Fatalf("winner not completed: %+v", results[0])
	}

	// a later submit leaves the stored row untouched
	final, err := store.CompleteSubmission(ctx, sub.ID, answers("0"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if *final.Score != *results[0].Score {
		t.Fatalf("repeated submit changed score to %d", *final.Score)
	}
}

func TestArchiveSubmission(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	st := seedStudent(t, store, "2021003", "PI 1 A", "Etika Profesi")

	sub, err := store.StartSubmission(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.ArchiveSubmission(ctx, sub.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, err := store.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsArchived || got.ArchivedAt == nil {
		t.Fatalf("not archived: %+v", got)
	}

	// re-archiving is a no-op, archiving the unknown is ErrNotFound
	if err := store.ArchiveSubmission(ctx, sub.ID); err != nil {
		t.Fatalf("re-archive: %v", err)
	}
	if err := store.ArchiveSubmission(ctx, "missing"); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestBulkArchiveFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedStudent(t, store, "a1", "PI 1 A", "Etika Profesi")
	b := seedStudent(t, store, "b1", "PI 1 B", "Etika Profesi")
	c := seedStudent(t, store, "c1", "PI 1 B", "Sistem Jaringan")

	subA, _ := store.StartSubmission(ctx, a.ID)
	subB, _ := store.StartSubmission(ctx, b.ID)
	subC, _ := store.StartSubmission(ctx, c.ID)
	if _, err := store.CompleteSubmission(ctx, subA.ID, nil, 40); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CompleteSubmission(ctx, subB.ID, nil, 90); err != nil {
		t.Fatal(err)
	}
	_ = subC // in progress, score NULL

	min := 50
	n, err := store.BulkArchive(ctx, exam.ArchiveFilter{ClassName: "PI 1 B", MinScore: &min})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("archived %d rows, want 1", n)
	}
	got, _ := store.GetSubmission(ctx, subB.ID)
	if !got.IsArchived {
		t.Fatal("subB should be archived")
	}

	// NULL scores count as zero for the bounds
	max := 10
	n, err = store.BulkArchive(ctx, exam.ArchiveFilter{MaxScore: &max})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("archived %d rows, want 1 (the in-progress NULL-score row)", n)
	}
	got, _ = store.GetSubmission(ctx, subC.ID)
	if !got.IsArchived {
		t.Fatal("subC should be archived")
	}

	// empty filter sweeps the rest
	n, err = store.BulkArchive(ctx, exam.ArchiveFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("archived %d rows, want 1", n)
	}
}

func TestBulkArchiveNormalizedFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedStudent(t, store, "n1", "PI 1 A", "Etika Profesi")
	b := seedStudent(t, store, "n2", "PI 1 B", "Sistem Jaringan")
	subA, _ := store.StartSubmission(ctx, a.ID)
	if _, err := store.StartSubmission(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	// filters match case- and whitespace-insensitively, like the course lookup
	n, err := store.BulkArchive(ctx, exam.ArchiveFilter{ClassName: "  pi 1 a ", CourseName: "ETIKA  profesi"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("archived %d rows, want 1", n)
	}
	got, _ := store.GetSubmission(ctx, subA.ID)
	if !got.IsArchived {
		t.Fatal("subA should be archived")
	}

	// a filter matching no student archives nothing
	n, err = store.BulkArchive(ctx, exam.ArchiveFilter{ClassName: "kelas tak ada"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("archived %d rows, want 0", n)
	}

	// the class-scoped purge uses the same normalized match
	n, err = store.PurgeArchived(ctx, " PI 1 a")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}
}

func TestPurgeArchived(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedStudent(t, store, "a2", "PI 1 A", "Etika Profesi")
	b := seedStudent(t, store, "b2", "PI 1 B", "Etika Profesi")
	subA, _ := store.StartSubmission(ctx, a.ID)
	subB, _ := store.StartSubmission(ctx, b.ID)

	// purging an active submission is refused
	if err := store.PurgeArchivedByID(ctx, subA.ID); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("purge active: got %v, want ErrNotFound", err)
	}

	if err := store.ArchiveSubmission(ctx, subA.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.ArchiveSubmission(ctx, subB.ID); err != nil {
		t.Fatal(err)
	}

	if err := store.PurgeArchivedByID(ctx, subA.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSubmission(ctx, subA.ID); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after purge", err)
	}

	// class-scoped purge leaves other classes alone
	n, err := store.PurgeArchived(ctx, "PI 1 A")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("purged %d, want 0", n)
	}
	n, err = store.PurgeArchived(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
}

func TestListSubmissions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedStudent(t, store, "a3", "PI 1 A", "Etika Profesi")
	b := seedStudent(t, store, "b3", "PI 1 B", "Etika Profesi")
	subA, _ := store.StartSubmission(ctx, a.ID)
	if _, err := store.StartSubmission(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.ArchiveSubmission(ctx, subA.ID); err != nil {
		t.Fatal(err)
	}

	active, err := store.ListSubmissions(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Student.NIM != "b3" {
		t.Fatalf("active: %+v", active)
	}

	archived, err := store.ListSubmissions(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].Submission.ID != subA.ID {
		t.Fatalf("archived: %+v", archived)
	}
}

func TestQuestionsForCourse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mk := func(course string) {
		t.Helper()
		_, err := store.CreateQuestion(ctx, exam.Question{
			Text:       "q for " + course,
			Type:       grading.TypeMultipleChoice,
			Options:    []string{"a", "b"},
			CourseName: course,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	mk("Etika Profesi")
	mk("Etika  profesi") // normalizes to the same course
	mk("Sistem Jaringan")

	qs, err := store.QuestionsForCourse(ctx, "  ETIKA profesi ")
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}

	all, err := store.QuestionsForCourse(ctx, "all")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d questions, want 3", len(all))
	}
}

func TestSeedAdmin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SeedAdmin(ctx, "admin", "hash-1"); err != nil {
		t.Fatal(err)
	}
	st, err := store.GetStudentByNIM(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if st.Role != exam.RoleAdmin || st.PasswordHash != "hash-1" {
		t.Fatalf("seeded admin: %+v", st)
	}

	// a second seed is a no-op while an admin exists
	if err := store.SeedAdmin(ctx, "admin2", "hash-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetStudentByNIM(ctx, "admin2"); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("second admin should not be created, got %v", err)
	}
}

func TestSeedAdminUpgradesExistingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedStudent(t, store, "dosen01", "System", "")

	if err := store.SeedAdmin(ctx, "dosen01", "hash-x"); err != nil {
		t.Fatal(err)
	}
	st, err := store.GetStudentByNIM(ctx, "dosen01")
	if err != nil {
		t.Fatal(err)
	}
	if st.Role != exam.RoleAdmin || st.PasswordHash != "hash-x" {
		t.Fatalf("got %+v", st)
	}
}

func TestUpdateBiodata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	st := seedStudent(t, store, "2021010", "", "")

	updated, err := store.UpdateBiodata(ctx, st.ID, "Budi Santoso", "PI 1 A", "Etika Profesi")
	if err != nil {
		t.Fatal(err)
	}
	if updated.FullName != "Budi Santoso" || updated.ClassName != "PI 1 A" || updated.Course != "Etika Profesi" {
		t.Fatalf("got %+v", updated)
	}

	if _, err := store.UpdateBiodata(ctx, 9999, "x", "y", "z"); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
