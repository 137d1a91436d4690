package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/rbac"
)

func formatStudentID(id int64) string { return strconv.FormatInt(id, 10) }

// StartExamHandler begins (or resumes) the caller's attempt. Students may
// only start their own exam.
func StartExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StudentID int64 `json:"student_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == 0 {
			writeMessage(w, http.StatusBadRequest, "student_id wajib diisi")
			return
		}
		if !ownsResource(r, req.StudentID) {
			writeMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		sub, err := svc.Start(r.Context(), req.StudentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

// QuestionsHandler serves the student-safe question list, filtered by course.
func QuestionsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := r.URL.Query().Get("courseName")
		questions, err := svc.QuestionsForCourse(r.Context(), course)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

// SubmitExamHandler grades and completes a submission. Answer payload shapes
// vary per question type, so the body is decoded as raw JSON and the grading
// engine does the typed decoding. Students may only submit their own attempt;
// completing is irreversible, so the owner check comes before anything else.
func SubmitExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		sub, err := svc.Result(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !ownsResource(r, sub.StudentID) {
			writeMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		var req struct {
			Answers map[string]json.RawMessage `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		out, err := svc.Submit(r.Context(), id, req.Answers)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ResultHandler returns a submission to its owner (or a privileged role).
func ResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := svc.Result(r.Context(), chi.URLParam(r, "submissionID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !ownsResource(r, sub.StudentID) {
			writeMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

type biodataPayload struct {
	FullName  string `json:"full_name" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
	Course    string `json:"course"`
}

// BiodataHandler records the profile a student fills in before the exam.
// Students may only update their own row; admins may update anyone's.
func BiodataHandler(store *exam.SQLStore, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "ID tidak valid")
			return
		}
		if !ownsResource(r, id) {
			writeMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		var req biodataPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Gagal memperbarui biodata: "+err.Error())
			return
		}
		st, err := store.UpdateBiodata(r.Context(), id, req.FullName, req.ClassName, req.Course)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// SettingsHandler exposes the read-only settings view the exam client needs
// (duration, passing score, instructional text).
func SettingsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := store.GetSettings(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
}

// ownsResource reports whether the request subject is the given student, or
// holds a role that may act on any student.
func ownsResource(r *http.Request, studentID int64) bool {
	role := rbac.RoleFromContext(r.Context())
	if role == string(exam.RoleAdmin) || role == string(exam.RoleProctor) {
		return true
	}
	return rbac.SubjectFromContext(r.Context()) == formatStudentID(studentID)
}
