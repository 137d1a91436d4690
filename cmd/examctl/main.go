// Command examctl is the operator CLI: seed the bootstrap admin, load a
// sample question bank, inspect results and saved exam sessions without
// going through the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	auth "github.com/ujian-kita/examportal/internal/auth/middleware"
	"github.com/ujian-kita/examportal/internal/config"
	"github.com/ujian-kita/examportal/internal/db"
	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/grading"
	"github.com/ujian-kita/examportal/internal/session"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "seed-admin":
		seedAdmin(ctx, openStore(ctx, cfg), os.Args[2:])
	case "seed-questions":
		seedQuestions(ctx, openStore(ctx, cfg), os.Args[2:])
	case "results":
		results(ctx, openStore(ctx, cfg), os.Args[2:])
	case "session":
		sessionCmd(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: examctl <seed-admin|seed-questions|results|session> [flags]")
}

func openStore(ctx context.Context, cfg config.Config) *exam.SQLStore {
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		fail("db open failed: %v", err)
	}
	return exam.NewSQLStore(dbh, cfg.DBDriver)
}

func fail(format string, args ...interface{}) {
	color.Red(format, args...)
	os.Exit(1)
}

func seedAdmin(ctx context.Context, store *exam.SQLStore, args []string) {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	nim := fs.String("nim", "admin", "admin login NIM")
	password := fs.String("password", "", "admin password (required)")
	_ = fs.Parse(args)

	if *password == "" {
		fail("seed-admin: -password is required")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		fail("hash password: %v", err)
	}
	if err := store.SeedAdmin(ctx, *nim, hash); err != nil {
		fail("seed admin: %v", err)
	}
	color.Green("admin account %q ready", *nim)
}

func seedQuestions(ctx context.Context, store *exam.SQLStore, args []string) {
	fs := flag.NewFlagSet("seed-questions", flag.ExitOnError)
	course := fs.String("course", "Etika Profesi", "course name for the sample bank")
	file := fs.String("file", "", "JSON file with questions (optional, overrides samples)")
	_ = fs.Parse(args)

	questions := sampleQuestions(*course)
	if *file != "" {
		raw, err := os.ReadFile(*file)
		if err != nil {
			fail("read %s: %v", *file, err)
		}
		questions = nil
		if err := json.Unmarshal(raw, &questions); err != nil {
			fail("parse %s: %v", *file, err)
		}
	}

	for _, q := range questions {
		created, err := store.CreateQuestion(ctx, q)
		if err != nil {
			fail("create question: %v", err)
		}
		fmt.Printf("  #%d  [%s]  %s\n", created.ID, created.Type, created.Text)
	}
	color.Green("seeded %d questions", len(questions))
}

func sampleQuestions(course string) []exam.Question {
	return []exam.Question{
		{
			Text:         "Apa kepanjangan dari HTTP?",
			Type:         grading.TypeMultipleChoice,
			Options:      []string{"HyperText Transfer Protocol", "High Transfer Text Protocol", "Hyper Terminal Transport Protocol", "Host Text Transfer Program"},
			CorrectIndex: 0,
			CourseName:   course,
		},
		{
			Text:         "Etika profesi hanya berlaku di lingkungan kantor.",
			Type:         grading.TypeTrueFalse,
			Options:      []string{"Benar", "Salah"},
			CorrectIndex: 1,
			CourseName:   course,
		},
		{
			Text:        "Sebutkan protokol pada lapisan transport.",
			Type:        grading.TypeShortAnswer,
			CorrectText: "TCP",
			CourseName:  course,
		},
		{
			Text:        "Jelaskan pentingnya kode etik bagi seorang profesional TI.",
			Type:        grading.TypeEssay,
			CorrectText: "kode etik menjaga integritas tanggung jawab profesional",
			CourseName:  course,
		},
	}
}

// sessionCmd inspects (or clears) the exam session saved under the configured
// session directory, the same files a resuming client reads.
func sessionCmd(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	clear := fs.Bool("clear", false, "remove the saved session")
	_ = fs.Parse(args)

	store, err := session.NewFSStore(cfg.SessionDir)
	if err != nil {
		fail("session store: %v", err)
	}
	if *clear {
		if err := store.Clear(); err != nil {
			fail("clear session: %v", err)
		}
		color.Green("session cleared")
		return
	}

	st, ok, err := store.Load()
	if err != nil {
		fail("load session: %v", err)
	}
	if !ok {
		color.Yellow("no saved session in %s", cfg.SessionDir)
		return
	}
	fmt.Printf("course:    %s\n", st.Course)
	fmt.Printf("questions: %d (current %d)\n", len(st.QuestionOrder), st.CurrentIndex+1)
	fmt.Printf("answered:  %d\n", st.AnsweredCount())
	fmt.Printf("time left: %ds\n", st.TimeLeft)
}

func results(ctx context.Context, store *exam.SQLStore, args []string) {
	fs := flag.NewFlagSet("results", flag.ExitOnError)
	archived := fs.Bool("archived", false, "show archived submissions instead of active")
	_ = fs.Parse(args)

	subs, err := store.ListSubmissions(ctx, *archived)
	if err != nil {
		fail("list submissions: %v", err)
	}
	if len(subs) == 0 {
		color.Yellow("no submissions")
		return
	}

	bold := color.New(color.Bold)
	bold.Printf("%-38s %-14s %-24s %-8s %s\n", "ID", "NIM", "NAME", "SCORE", "STATUS")
	for _, row := range subs {
		sub := row.Submission
		score := "-"
		if sub.Score != nil {
			score = fmt.Sprintf("%d", *sub.Score)
		}
		status := "completed"
		if !sub.IsCompleted {
			status = "in progress"
		}
		if sub.IsArchived {
			status = "archived"
		}
		fmt.Printf("%-38s %-14s %-24s %-8s %s\n", sub.ID, row.Student.NIM, row.Student.FullName, score, status)
	}
}
