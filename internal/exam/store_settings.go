package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

func defaultSettings() Settings {
	return Settings{
		ExamDuration: 60,
		ExamTitle:    "Ujian Akhir Semester",
		Instructions: "Mohon baca instruksi dengan seksama sebelum memulai sesi ujian Anda.",
		PassingScore: 70,
		AvailableClasses: []string{
			"Pendidikan Informatika 1 A",
			"Pendidikan Informatika 1 B",
		},
		AvailableCourses: []string{
			"Etika Profesi",
			"Sistem Jaringan",
			"Pemrograman Dasar",
		},
		ActiveCourses:   []string{"Etika Profesi"},
		CourseDurations: map[string]int{},
	}
}

const settingsCols = `id,exam_duration,exam_title,instructions,passing_score,available_classes_json,available_courses_json,active_courses_json,course_durations_json,app_logo`

// GetSettings returns the singleton configuration row, creating it with
// defaults on first access.
func (s *SQLStore) GetSettings(ctx context.Context) (Settings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+settingsCols+` FROM settings ORDER BY id LIMIT 1`)
	set, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s.insertSettings(ctx, defaultSettings())
	}
	return set, err
}

// UpdateSettings overwrites the singleton row. Callers merge partial updates
// onto the current value first.
func (s *SQLStore) UpdateSettings(ctx context.Context, set Settings) (Settings, error) {
	cur, err := s.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	classes, courses, active, durations, err := marshalSettingsLists(set)
	if err != nil {
		return Settings{}, err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE settings SET exam_duration=$1, exam_title=$2, instructions=$3, passing_score=$4,
		available_classes_json=$5, available_courses_json=$6, active_courses_json=$7, course_durations_json=$8, app_logo=$9
		WHERE id=$10`,
		set.ExamDuration, set.ExamTitle, set.Instructions, set.PassingScore,
		classes, courses, active, durations, set.AppLogo, cur.ID)
	if err != nil {
		return Settings{}, err
	}
	set.ID = cur.ID
	return set, nil
}

func (s *SQLStore) insertSettings(ctx context.Context, set Settings) (Settings, error) {
	classes, courses, active, durations, err := marshalSettingsLists(set)
	if err != nil {
		return Settings{}, err
	}
	id, err := s.insertReturningID(ctx, `INSERT INTO settings (exam_duration,exam_title,instructions,passing_score,
		available_classes_json,available_courses_json,active_courses_json,course_durations_json,app_logo)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		set.ExamDuration, set.ExamTitle, set.Instructions, set.PassingScore,
		classes, courses, active, durations, set.AppLogo)
	if err != nil {
		return Settings{}, err
	}
	set.ID = id
	return set, nil
}

func marshalSettingsLists(set Settings) (classes, courses, active, durations string, err error) {
	b, err := json.Marshal(orEmpty(set.AvailableClasses))
	if err != nil {
		return
	}
	classes = string(b)
	b, err = json.Marshal(orEmpty(set.AvailableCourses))
	if err != nil {
		return
	}
	courses = string(b)
	b, err = json.Marshal(orEmpty(set.ActiveCourses))
	if err != nil {
		return
	}
	active = string(b)
	d := set.CourseDurations
	if d == nil {
		d = map[string]int{}
	}
	b, err = json.Marshal(d)
	if err != nil {
		return
	}
	durations = string(b)
	return
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func scanSettings(row rowScanner) (Settings, error) {
	var (
		set       Settings
		classes   string
		courses   string
		active    string
		durations string
		logo      sql.NullString
	)
	err := row.Scan(&set.ID, &set.ExamDuration, &set.ExamTitle, &set.Instructions, &set.PassingScore,
		&classes, &courses, &active, &durations, &logo)
	if err != nil {
		return Settings{}, err
	}
	_ = json.Unmarshal([]byte(classes), &set.AvailableClasses)
	_ = json.Unmarshal([]byte(courses), &set.AvailableCourses)
	_ = json.Unmarshal([]byte(active), &set.ActiveCourses)
	_ = json.Unmarshal([]byte(durations), &set.CourseDurations)
	set.AppLogo = logo.String
	return set, nil
}
