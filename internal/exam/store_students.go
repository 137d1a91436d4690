package exam

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const studentCols = `id,nim,full_name,class_name,course,role,password_hash,created_by,created_at`

func scanStudent(row rowScanner) (Student, error) {
	var (
		st        Student
		fullName  sql.NullString
		className sql.NullString
		course    sql.NullString
		passHash  sql.NullString
		createdBy sql.NullInt64
	)
	err := row.Scan(&st.ID, &st.NIM, &fullName, &className, &course, &st.Role, &passHash, &createdBy, &st.CreatedAt)
	if err != nil {
		return Student{}, err
	}
	st.FullName = fullName.String
	st.ClassName = className.String
	st.Course = course.String
	st.PasswordHash = passHash.String
	st.CreatedBy = createdBy.Int64
	return st, nil
}

func (s *SQLStore) CreateStudent(ctx context.Context, st Student) (Student, error) {
	if st.Role == "" {
		st.Role = RoleStudent
	}
	st.CreatedAt = time.Now().Unix()
	id, err := s.insertReturningID(ctx, `INSERT INTO students (nim,full_name,class_name,course,role,password_hash,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		st.NIM, st.FullName, st.ClassName, st.Course, string(st.Role), st.PasswordHash, st.CreatedBy, st.CreatedAt)
	if err != nil {
		return Student{}, err
	}
	st.ID = id
	return st, nil
}

func (s *SQLStore) GetStudent(ctx context.Context, id int64) (Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id=$1`, id)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return st, err
}

func (s *SQLStore) GetStudentByNIM(ctx context.Context, nim string) (Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE nim=$1`, nim)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return st, err
}

// UpdateBiodata records the profile a student fills in before the exam.
func (s *SQLStore) UpdateBiodata(ctx context.Context, id int64, fullName, className, course string) (Student, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE students SET full_name=$1, class_name=$2, course=$3 WHERE id=$4`,
		fullName, className, course, id)
	if err != nil {
		return Student{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Student{}, ErrNotFound
	}
	return s.GetStudent(ctx, id)
}

// UpdateStudent is the admin-side full update (role changes included).
func (s *SQLStore) UpdateStudent(ctx context.Context, st Student) (Student, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE students SET nim=$1, full_name=$2, class_name=$3, course=$4, role=$5, password_hash=$6 WHERE id=$7`,
		st.NIM, st.FullName, st.ClassName, st.Course, string(st.Role), st.PasswordHash, st.ID)
	if err != nil {
		return Student{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Student{}, ErrNotFound
	}
	return s.GetStudent(ctx, st.ID)
}

func (s *SQLStore) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+studentCols+` FROM students ORDER BY nim`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteStudent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedAdmin provisions the bootstrap administrator account if no admin
// exists yet. Existing rows with the same NIM are upgraded in place.
func (s *SQLStore) SeedAdmin(ctx context.Context, nim, passwordHash string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM students WHERE role=$1`, string(RoleAdmin)).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if existing, err := s.GetStudentByNIM(ctx, nim); err == nil {
		existing.Role = RoleAdmin
		existing.PasswordHash = passwordHash
		_, err = s.UpdateStudent(ctx, existing)
		return err
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err := s.CreateStudent(ctx, Student{
		NIM:          nim,
		FullName:     "Administrator",
		ClassName:    "System",
		Role:         RoleAdmin,
		PasswordHash: passwordHash,
	})
	return err
}
