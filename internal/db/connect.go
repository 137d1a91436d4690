package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examportal.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examportal?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS students (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  nim TEXT NOT NULL UNIQUE,
  full_name TEXT,
  class_name TEXT,
  course TEXT,
  role TEXT NOT NULL DEFAULT 'student',
  password_hash TEXT,
  created_by INTEGER,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  text TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'multiple_choice',
  options_json TEXT NOT NULL,
  correct_index INTEGER NOT NULL DEFAULT 0,
  correct_text TEXT,
  points INTEGER NOT NULL DEFAULT 10,
  course_name TEXT
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  score INTEGER,
  answers_json TEXT NOT NULL,
  start_time INTEGER NOT NULL,
  end_time INTEGER,
  is_completed INTEGER NOT NULL DEFAULT 0,
  is_archived INTEGER NOT NULL DEFAULT 0,
  archived_at INTEGER
);

CREATE TABLE IF NOT EXISTS settings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exam_duration INTEGER NOT NULL DEFAULT 60,
  exam_title TEXT NOT NULL DEFAULT 'Ujian Akhir Semester',
  instructions TEXT NOT NULL DEFAULT '',
  passing_score INTEGER NOT NULL DEFAULT 70,
  available_classes_json TEXT NOT NULL DEFAULT '[]',
  available_courses_json TEXT NOT NULL DEFAULT '[]',
  active_courses_json TEXT NOT NULL DEFAULT '[]',
  course_durations_json TEXT NOT NULL DEFAULT '{}',
  app_logo TEXT
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
  id BIGSERIAL PRIMARY KEY,
  nim TEXT NOT NULL UNIQUE,
  full_name TEXT,
  class_name TEXT,
  course TEXT,
  role TEXT NOT NULL DEFAULT 'student',
  password_hash TEXT,
  created_by BIGINT,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  text TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'multiple_choice',
  options_json TEXT NOT NULL,
  correct_index INTEGER NOT NULL DEFAULT 0,
  correct_text TEXT,
  points INTEGER NOT NULL DEFAULT 10,
  course_name TEXT
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  score INTEGER,
  answers_json TEXT NOT NULL,
  start_time BIGINT NOT NULL,
  end_time BIGINT,
  is_completed BOOLEAN NOT NULL DEFAULT FALSE,
  is_archived BOOLEAN NOT NULL DEFAULT FALSE,
  archived_at BIGINT
);

CREATE TABLE IF NOT EXISTS settings (
  id BIGSERIAL PRIMARY KEY,
  exam_duration INTEGER NOT NULL DEFAULT 60,
  exam_title TEXT NOT NULL DEFAULT 'Ujian Akhir Semester',
  instructions TEXT NOT NULL DEFAULT '',
  passing_score INTEGER NOT NULL DEFAULT 70,
  available_classes_json TEXT NOT NULL DEFAULT '[]',
  available_courses_json TEXT NOT NULL DEFAULT '[]',
  active_courses_json TEXT NOT NULL DEFAULT '[]',
  course_durations_json TEXT NOT NULL DEFAULT '{}',
  app_logo TEXT
);
`
