package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ujian-kita/examportal/internal/exam"
	"github.com/ujian-kita/examportal/internal/grading"
)

type questionPayload struct {
	Text         string   `json:"text" validate:"required"`
	Type         string   `json:"type" validate:"omitempty,oneof=multiple_choice true_false matching short_answer essay ordering"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
	CorrectText  string   `json:"correct_text"`
	Points       int      `json:"points" validate:"gte=0"`
	CourseName   string   `json:"course_name"`
}

func (p questionPayload) toQuestion() exam.Question {
	return exam.Question{
		Text:         p.Text,
		Type:         grading.QuestionType(p.Type),
		Options:      p.Options,
		CorrectIndex: p.CorrectIndex,
		CorrectText:  p.CorrectText,
		Points:       p.Points,
		CourseName:   p.CourseName,
	}
}

func ListQuestionsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuestions(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

func CreateQuestionHandler(store *exam.SQLStore, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Soal tidak valid: "+err.Error())
			return
		}
		q, err := store.CreateQuestion(r.Context(), req.toQuestion())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// UpdateQuestionHandler applies a partial update: absent fields keep their
// stored value. Note edits never rescore completed submissions.
func UpdateQuestionHandler(store *exam.SQLStore, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "ID tidak valid")
			return
		}
		cur, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		req := questionPayload{
			Text:         cur.Text,
			Type:         string(cur.Type),
			Options:      cur.Options,
			CorrectIndex: cur.CorrectIndex,
			CorrectText:  cur.CorrectText,
			Points:       cur.Points,
			CourseName:   cur.CourseName,
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Soal tidak valid: "+err.Error())
			return
		}
		q := req.toQuestion()
		q.ID = id
		updated, err := store.UpdateQuestion(r.Context(), q)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteQuestionHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "ID tidak valid")
			return
		}
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
