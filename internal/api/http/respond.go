package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ujian-kita/examportal/internal/exam"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Unexpected
// failures become a generic 500; the cause is logged, never surfaced.
func writeDomainError(w http.ResponseWriter, err error) {
	var noQuestions *exam.NoQuestionsError
	switch {
	case errors.As(err, &noQuestions):
		writeMessage(w, http.StatusBadRequest, "Tidak ada soal untuk mata kuliah: "+noQuestions.Course)
	case errors.Is(err, exam.ErrRetakeNotAllowed):
		writeMessage(w, http.StatusForbidden, "Anda sudah menyelesaikan ujian dan tidak dapat mengulang kembali.")
	case errors.Is(err, exam.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Data tidak ditemukan")
	default:
		log.Printf("internal error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
