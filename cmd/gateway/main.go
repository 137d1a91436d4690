package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	api "github.com/ujian-kita/examportal/internal/api/http"
	auth "github.com/ujian-kita/examportal/internal/auth/middleware"
	"github.com/ujian-kita/examportal/internal/config"
	"github.com/ujian-kita/examportal/internal/db"
	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/grading"
	"github.com/ujian-kita/examportal/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh, cfg.DBDriver)
	svc := exam.NewService(store, grading.NewGrader())

	if cfg.AdminPassHash != "" {
		if err := store.SeedAdmin(ctx, cfg.AdminNIM, cfg.AdminPassHash); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	validate := validator.New()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// NIM-based login; privileged roles answer a password challenge.
	r.Post("/auth/login", api.LoginHandler(store, authSvc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Student flow
		pr.With(rbac.Require("exam:start")).
			Post("/exam/start", api.StartExamHandler(svc))
		pr.With(rbac.Require("exam:questions")).
			Get("/exam/questions", api.QuestionsHandler(svc))
		pr.With(rbac.Require("exam:submit")).
			Post("/exam/submissions/{submissionID}/submit", api.SubmitExamHandler(svc))
		pr.With(rbac.Require("exam:result")).
			Get("/exam/submissions/{submissionID}", api.ResultHandler(svc))
		pr.With(rbac.Require("biodata:update")).
			Patch("/students/{studentID}/biodata", api.BiodataHandler(store, validate))
		pr.With(rbac.Require("settings:view")).
			Get("/settings", api.SettingsHandler(store))

		// Question bank (admin)
		pr.With(rbac.Require("admin:questions")).
			Get("/admin/questions", api.ListQuestionsHandler(store))
		pr.With(rbac.Require("admin:questions")).
			Post("/admin/questions", api.CreateQuestionHandler(store, validate))
		pr.With(rbac.Require("admin:questions")).
			Patch("/admin/questions/{questionID}", api.UpdateQuestionHandler(store, validate))
		pr.With(rbac.Require("admin:questions")).
			Delete("/admin/questions/{questionID}", api.DeleteQuestionHandler(store))

		// Students (admin)
		pr.With(rbac.Require("admin:students")).
			Get("/admin/students", api.ListStudentsHandler(store))
		pr.With(rbac.Require("admin:students")).
			Post("/admin/students", api.CreateStudentHandler(store))
		pr.With(rbac.Require("admin:students")).
			Post("/admin/students/import", api.ImportStudentsHandler(store))
		pr.With(rbac.Require("admin:students")).
			Patch("/admin/students/{studentID}", api.UpdateStudentHandler(store))
		pr.With(rbac.Require("admin:students")).
			Delete("/admin/students/{studentID}", api.DeleteStudentHandler(store))

		// Submissions (proctor may read, admin may archive/purge)
		pr.With(rbac.RequireAny("submissions:list", "admin:submissions")).
			Get("/admin/submissions", api.ListSubmissionsHandler(store))
		pr.With(rbac.RequireAny("submissions:list", "admin:submissions")).
			Get("/admin/submissions/archived", api.ListArchivedSubmissionsHandler(store))
		pr.With(rbac.RequireAny("submissions:view", "admin:submissions")).
			Get("/admin/submissions/{submissionID}/details", api.SubmissionDetailsHandler(store))
		pr.With(rbac.Require("admin:submissions")).
			Delete("/admin/submissions/{submissionID}", api.ArchiveSubmissionHandler(store))
		pr.With(rbac.Require("admin:submissions")).
			Post("/admin/submissions/bulk-archive", api.BulkArchiveHandler(store))
		pr.With(rbac.Require("admin:submissions")).
			Delete("/admin/submissions/archived/{submissionID}", api.PurgeArchivedSubmissionHandler(store))
		pr.With(rbac.Require("admin:submissions")).
			Post("/admin/submissions/archived/clear", api.ClearArchiveHandler(store))

		// Settings (admin)
		pr.With(rbac.Require("admin:settings")).
			Get("/admin/settings", api.GetSettingsHandler(store))
		pr.With(rbac.Require("admin:settings")).
			Patch("/admin/settings", api.PatchSettingsHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
