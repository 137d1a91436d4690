package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	auth "github.com/ujian-kita/examportal/internal/auth/middleware"
	"github.com/ujian-kita/examportal/internal/exam"
)

type loginRequest struct {
	NIM      string  `json:"nim"`
	Password *string `json:"password"`
}

type loginResponse struct {
	Student          exam.Student `json:"student"`
	HasBiodata       bool         `json:"has_biodata"`
	IsAdmin          bool         `json:"is_admin"`
	RequiresPassword bool         `json:"requires_password"`
	AccessToken      string       `json:"access_token,omitempty"`
}

// LoginHandler authenticates by NIM. Identity lookup and credential
// verification are separate steps: unknown NIMs are provisioned as students,
// privileged roles (admin, proctor) must additionally present their password.
func LoginHandler(store *exam.SQLStore, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		nim := strings.ToLower(strings.TrimSpace(req.NIM))
		if nim == "" {
			writeMessage(w, http.StatusBadRequest, "NIM wajib diisi")
			return
		}

		student, err := store.GetStudentByNIM(r.Context(), nim)
		if errors.Is(err, exam.ErrNotFound) {
			student, err = store.CreateStudent(r.Context(), exam.Student{NIM: nim})
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := loginResponse{
			Student:    student,
			HasBiodata: student.FullName != "" && student.ClassName != "",
			IsAdmin:    student.Role == exam.RoleAdmin,
		}

		if student.Role.Privileged() {
			resp.HasBiodata = true
			if req.Password == nil {
				// first round-trip: tell the client to ask for the password
				resp.RequiresPassword = true
				writeJSON(w, http.StatusOK, resp)
				return
			}
			if !auth.VerifyPassword(student.PasswordHash, strings.TrimSpace(*req.Password)) {
				writeMessage(w, http.StatusUnauthorized, "Password salah")
				return
			}
		}

		token, err := authSvc.IssueJWT(formatStudentID(student.ID), string(student.Role))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp.AccessToken = token
		writeJSON(w, http.StatusOK, resp)
	}
}
