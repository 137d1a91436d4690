package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/grading"
)

func ListSubmissionsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListSubmissions(r.Context(), false)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func ListArchivedSubmissionsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListSubmissions(r.Context(), true)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// SubmissionDetailsHandler returns a submission together with its student and
// the question set the student was graded against, for per-answer review.
func SubmissionDetailsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := store.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		student, err := store.GetStudent(r.Context(), sub.StudentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		questions := []exam.Question{}
		if grading.Normalize(student.Course) != "" {
			questions, err = store.QuestionsForCourse(r.Context(), student.Course)
			if err != nil {
				writeDomainError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"submission": sub,
			"student":    student,
			"questions":  questions,
		})
	}
}

// ArchiveSubmissionHandler soft-deletes one submission ("allow retake").
func ArchiveSubmissionHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.ArchiveSubmission(r.Context(), chi.URLParam(r, "submissionID")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type bulkArchiveRequest struct {
	ClassName  string `json:"class_name"`
	CourseName string `json:"course_name"`
	MinScore   *int   `json:"min_score"`
	MaxScore   *int   `json:"max_score"`
}

// BulkArchiveHandler archives every active submission matching all provided
// filters. An empty body archives everything.
func BulkArchiveHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkArchiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		n, err := store.BulkArchive(r.Context(), exam.ArchiveFilter{
			ClassName:  req.ClassName,
			CourseName: req.CourseName,
			MinScore:   req.MinScore,
			MaxScore:   req.MaxScore,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"archived": n})
	}
}

// PurgeArchivedSubmissionHandler hard-deletes one archived submission.
func PurgeArchivedSubmissionHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.PurgeArchivedByID(r.Context(), chi.URLParam(r, "submissionID")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearArchiveHandler hard-deletes archived submissions, optionally scoped to
// one class.
func ClearArchiveHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ClassName string `json:"class_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		n, err := store.PurgeArchived(r.Context(), req.ClassName)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	}
}
