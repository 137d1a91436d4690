package http

import (
	"encoding/json"
	"net/http"

	"github.com/ujian-kita/examportal/internal/exam"
)

func GetSettingsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := store.GetSettings(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
}

// PatchSettingsHandler merges the body onto the current settings row: fields
// absent from the body keep their stored value.
func PatchSettingsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := store.GetSettings(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&cur); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		updated, err := store.UpdateSettings(r.Context(), cur)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
