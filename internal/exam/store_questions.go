package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ujian-kita/examportal/internal/grading"
)

const questionCols = `id,text,type,options_json,correct_index,correct_text,points,course_name`

func scanQuestion(row rowScanner) (Question, error) {
	var (
		q           Question
		optionsJSON string
		correctText sql.NullString
		courseName  sql.NullString
	)
	err := row.Scan(&q.ID, &q.Text, &q.Type, &optionsJSON, &q.CorrectIndex, &correctText, &q.Points, &courseName)
	if err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
		q.Options = nil
	}
	q.CorrectText = correctText.String
	q.CourseName = courseName.String
	return q, nil
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	if q.Type == "" {
		q.Type = grading.TypeMultipleChoice
	}
	if q.Points <= 0 {
		q.Points = grading.DefaultPoints
	}
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return Question{}, err
	}
	id, err := s.insertReturningID(ctx, `INSERT INTO questions (text,type,options_json,correct_index,correct_text,points,course_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.Text, string(q.Type), string(opts), q.CorrectIndex, q.CorrectText, q.Points, q.CourseName)
	if err != nil {
		return Question{}, err
	}
	q.ID = id
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) (Question, error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return Question{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET text=$1, type=$2, options_json=$3, correct_index=$4, correct_text=$5, points=$6, course_name=$7
		WHERE id=$8`,
		q.Text, string(q.Type), string(opts), q.CorrectIndex, q.CorrectText, q.Points, q.CourseName, q.ID)
	if err != nil {
		return Question{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Question{}, ErrNotFound
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+questionCols+` FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuestionsForCourse filters the bank by a case/whitespace-insensitive course
// match. An empty course returns the full bank. Normalization happens in Go;
// the stored course names keep their original form.
func (s *SQLStore) QuestionsForCourse(ctx context.Context, course string) ([]Question, error) {
	all, err := s.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	want := grading.Normalize(course)
	if want == "" || want == "all" {
		return all, nil
	}
	out := []Question{}
	for _, q := range all {
		if q.CourseName != "" && grading.Normalize(q.CourseName) == want {
			out = append(out, q)
		}
	}
	return out, nil
}
