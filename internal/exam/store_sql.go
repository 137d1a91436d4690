package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ujian-kita/examportal/internal/grading"
)

// SQLStore persists students, questions, submissions and settings over
// database/sql. It is the only writer of submission rows.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// insertReturningID bridges the LastInsertId gap between the sqlite and pgx
// drivers for serial primary keys.
func (s *SQLStore) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.driver == "postgres" {
		var id int64
		err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const submissionCols = `id,student_id,score,answers_json,start_time,end_time,is_completed,is_archived,archived_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var (
		sub        Submission
		score      sql.NullInt64
		end        sql.NullInt64
		archivedAt sql.NullInt64
		answers    string
	)
	err := row.Scan(&sub.ID, &sub.StudentID, &score, &answers, &sub.StartTime,
		&end, &sub.IsCompleted, &sub.IsArchived, &archivedAt)
	if err != nil {
		return Submission{}, err
	}
	if score.Valid {
		v := int(score.Int64)
		sub.Score = &v
	}
	if end.Valid {
		sub.EndTime = &end.Int64
	}
	if archivedAt.Valid {
		sub.ArchivedAt = &archivedAt.Int64
	}
	if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
		sub.Answers = map[string]json.RawMessage{}
	}
	return sub, nil
}

// StartSubmission begins (or resumes) the student's exam attempt.
// The latest non-archived attempt decides the outcome: still in progress
// resumes it unchanged, completed refuses the retake, absent creates a
// fresh attempt.
func (s *SQLStore) StartSubmission(ctx context.Context, studentID int64) (Submission, error) {
	if _, err := s.GetStudent(ctx, studentID); err != nil {
		return Submission{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions
		WHERE student_id=$1 AND is_archived=FALSE ORDER BY start_time DESC LIMIT 1`, studentID)
	latest, err := scanSubmission(row)
	switch {
	case err == nil && !latest.IsCompleted:
		return latest, nil // idempotent resume
	case err == nil:
		return Submission{}, ErrRetakeNotAllowed
	case !errors.Is(err, sql.ErrNoRows):
		return Submission{}, err
	}

	sub := Submission{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Answers:   map[string]json.RawMessage{},
		StartTime: time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions (id,student_id,answers_json,start_time,is_completed,is_archived)
		VALUES ($1,$2,'{}',$3,FALSE,FALSE)`, sub.ID, sub.StudentID, sub.StartTime)
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	return sub, err
}

// CompleteSubmission stores the raw answers and score and marks the attempt
// completed, in one conditional update. Only the first writer wins: a
// concurrent or repeated submit finds is_completed already set and gets the
// stored row back untouched.
func (s *SQLStore) CompleteSubmission(ctx context.Context, id string, answers map[string]json.RawMessage, score int) (Submission, error) {
	if answers == nil {
		answers = map[string]json.RawMessage{}
	}
	buf, err := json.Marshal(answers)
	if err != nil {
		return Submission{}, err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE submissions SET answers_json=$1, score=$2, end_time=$3, is_completed=TRUE
		WHERE id=$4 AND is_completed=FALSE`, string(buf), score, time.Now().Unix(), id)
	if err != nil {
		return Submission{}, err
	}
	// Either our write or the earlier winner's; GetSubmission reports
	// ErrNotFound for unknown ids.
	return s.GetSubmission(ctx, id)
}

// ArchiveSubmission soft-deletes an attempt, preserving it as history and
// freeing the student to start a new one. Re-archiving is a no-op.
func (s *SQLStore) ArchiveSubmission(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET is_archived=TRUE, archived_at=$1
		WHERE id=$2 AND is_archived=FALSE`, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetSubmission(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveFilter selects submissions for bulk archiving. All provided fields
// must match (AND); zero values place no constraint.
type ArchiveFilter struct {
	ClassName  string
	CourseName string
	MinScore   *int
	MaxScore   *int
}

// studentIDsMatching resolves the students whose class and course match the
// given filters in normalized form. Normalization happens in Go, same as
// QuestionsForCourse. Empty filters place no constraint.
func (s *SQLStore) studentIDsMatching(ctx context.Context, className, courseName string) ([]int64, error) {
	students, err := s.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	wantClass := grading.Normalize(className)
	wantCourse := grading.Normalize(courseName)
	ids := []int64{}
	for _, st := range students {
		if wantClass != "" && grading.Normalize(st.ClassName) != wantClass {
			continue
		}
		if wantCourse != "" && grading.Normalize(st.Course) != wantCourse {
			continue
		}
		ids = append(ids, st.ID)
	}
	return ids, nil
}

// BulkArchive archives every non-archived submission matching the filter and
// reports how many rows were touched. Class and course filters match in
// normalized form.
func (s *SQLStore) BulkArchive(ctx context.Context, f ArchiveFilter) (int64, error) {
	conds := []string{"is_archived=FALSE"}
	args := []interface{}{time.Now().Unix()}
	next := 2

	add := func(cond string, v interface{}) {
		conds = append(conds, fmt.Sprintf(cond, next))
		args = append(args, v)
		next++
	}
	if f.ClassName != "" || f.CourseName != "" {
		ids, err := s.studentIDsMatching(ctx, f.ClassName, f.CourseName)
		if err != nil {
			return 0, err
		}
		if len(ids) == 0 {
			return 0, nil
		}
		ph := make([]string, len(ids))
		for i, id := range ids {
			ph[i] = fmt.Sprintf("$%d", next)
			args = append(args, id)
			next++
		}
		conds = append(conds, "student_id IN ("+strings.Join(ph, ",")+")")
	}
	if f.MinScore != nil {
		add("COALESCE(score,0) >= $%d", *f.MinScore)
	}
	if f.MaxScore != nil {
		add("COALESCE(score,0) <= $%d", *f.MaxScore)
	}

	query := `UPDATE submissions SET is_archived=TRUE, archived_at=$1 WHERE ` + strings.Join(conds, " AND ")
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeArchived permanently deletes archived submissions, optionally scoped
// to one class (normalized match). An empty className clears the whole
// archive.
func (s *SQLStore) PurgeArchived(ctx context.Context, className string) (int64, error) {
	if className == "" {
		res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE is_archived=TRUE`)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	ids, err := s.studentIDsMatching(ctx, className, "")
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE is_archived=TRUE
		AND student_id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeArchivedByID deletes a single archived submission. Active submissions
// are never hard-deleted.
func (s *SQLStore) PurgeArchivedByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id=$1 AND is_archived=TRUE`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubmissions returns active or archived submissions joined with their
// students, newest first.
func (s *SQLStore) ListSubmissions(ctx context.Context, archived bool) ([]SubmissionWithStudent, error) {
	order := "sub.start_time DESC"
	state := "FALSE"
	if archived {
		order = "sub.archived_at DESC"
		state = "TRUE"
	}
	query := `SELECT ` + prefixCols("sub", submissionCols) + `,
		st.id, st.nim, st.full_name, st.class_name, st.course, st.role, st.created_by, st.created_at
		FROM submissions sub
		JOIN students st ON st.id = sub.student_id
		WHERE sub.is_archived=` + state + `
		ORDER BY ` + order
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SubmissionWithStudent{}
	for rows.Next() {
		var (
			sub        Submission
			score      sql.NullInt64
			end        sql.NullInt64
			archivedAt sql.NullInt64
			answers    string
			st         Student
			fullName   sql.NullString
			className  sql.NullString
			course     sql.NullString
			createdBy  sql.NullInt64
		)
		if err := rows.Scan(&sub.ID, &sub.StudentID, &score, &answers, &sub.StartTime,
			&end, &sub.IsCompleted, &sub.IsArchived, &archivedAt,
			&st.ID, &st.NIM, &fullName, &className, &course, &st.Role, &createdBy, &st.CreatedAt); err != nil {
			return nil, err
		}
		if score.Valid {
			v := int(score.Int64)
			sub.Score = &v
		}
		if end.Valid {
			sub.EndTime = &end.Int64
		}
		if archivedAt.Valid {
			sub.ArchivedAt = &archivedAt.Int64
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			sub.Answers = map[string]json.RawMessage{}
		}
		st.FullName = fullName.String
		st.ClassName = className.String
		st.Course = course.String
		st.CreatedBy = createdBy.Int64
		out = append(out, SubmissionWithStudent{Submission: sub, Student: st})
	}
	return out, rows.Err()
}

func prefixCols(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + "." + p
	}
	return strings.Join(parts, ",")
}
