package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/ujian-kita/examportal/internal/auth/middleware"
	"github.com/ujian-kita/examportal/internal/exam"
)

type studentRow struct {
	NIM       string `json:"nim"`
	FullName  string `json:"full_name"`
	ClassName string `json:"class_name"`
	Course    string `json:"course"`
	Role      string `json:"role"`
	Password  string `json:"password,omitempty"` // plaintext, hashed before storage
}

func ListStudentsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := store.ListStudents(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, students)
	}
}

func CreateStudentHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studentRow
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		st, err := rowToStudent(req, true)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := store.CreateStudent(r.Context(), st)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Gagal membuat user")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateStudentHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "ID tidak valid")
			return
		}
		cur, err := store.GetStudent(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		req := studentRow{
			NIM:       cur.NIM,
			FullName:  cur.FullName,
			ClassName: cur.ClassName,
			Course:    cur.Course,
			Role:      string(cur.Role),
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Request tidak valid")
			return
		}
		// the stored hash stands in when no new password is sent, so a
		// privileged account can be renamed without resending credentials
		st, err := rowToStudent(req, false)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		st.ID = id
		if st.PasswordHash == "" {
			st.PasswordHash = cur.PasswordHash
		}
		if st.Role.Privileged() && st.PasswordHash == "" {
			writeMessage(w, http.StatusBadRequest, "password wajib untuk role "+string(st.Role))
			return
		}
		updated, err := store.UpdateStudent(r.Context(), st)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteStudentHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "ID tidak valid")
			return
		}
		if err := store.DeleteStudent(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ImportStudentsHandler accepts either a multipart file= (CSV or JSON) or a
// raw JSON array in the body and creates every row.
func ImportStudentsHandler(store *exam.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []studentRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "file required")
				return
			}
			defer f.Close()
			// sniff simple CSV vs JSON by first non-space byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				writeMessage(w, http.StatusBadRequest, "empty file")
				return
			}
			if seeker, ok := f.(io.Seeker); ok {
				_, _ = seeker.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					writeMessage(w, http.StatusBadRequest, "bad json")
					return
				}
			} else {
				rs, err := parseStudentCSV(f)
				if err != nil {
					writeMessage(w, http.StatusBadRequest, "bad csv: "+err.Error())
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				writeMessage(w, http.StatusBadRequest, "expected JSON array or multipart file")
				return
			}
		}

		created := []exam.Student{}
		for _, row := range rows {
			if strings.TrimSpace(row.NIM) == "" {
				continue
			}
			st, err := rowToStudent(row, true)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			out, err := store.CreateStudent(r.Context(), st)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Gagal import data: "+row.NIM)
				return
			}
			created = append(created, out)
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func parseStudentCSV(r io.Reader) ([]studentRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["nim"]; !ok {
		return nil, errors.New("missing column: nim")
	}
	get := func(rec []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []studentRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, studentRow{
			NIM:       get(rec, "nim"),
			FullName:  get(rec, "full_name"),
			ClassName: get(rec, "class_name"),
			Course:    get(rec, "course"),
			Role:      get(rec, "role"),
			Password:  get(rec, "password"),
		})
	}
	return rows, nil
}

// rowToStudent validates and converts an incoming row. requirePassword is set
// on create and import, where a privileged role without a password would leave
// an account nobody can log into; updates fall back to the stored hash.
func rowToStudent(row studentRow, requirePassword bool) (exam.Student, error) {
	role := exam.Role(strings.ToLower(strings.TrimSpace(row.Role)))
	if role == "" {
		role = exam.RoleStudent
	}
	switch role {
	case exam.RoleStudent, exam.RoleProctor, exam.RoleAdmin:
	default:
		return exam.Student{}, errors.New("role tidak dikenal: " + string(role))
	}
	st := exam.Student{
		NIM:       strings.ToLower(strings.TrimSpace(row.NIM)),
		FullName:  strings.TrimSpace(row.FullName),
		ClassName: strings.TrimSpace(row.ClassName),
		Course:    strings.TrimSpace(row.Course),
		Role:      role,
	}
	if row.Password != "" {
		hash, err := auth.HashPassword(row.Password)
		if err != nil {
			return exam.Student{}, err
		}
		st.PasswordHash = hash
	} else if requirePassword && role.Privileged() {
		return exam.Student{}, errors.New("password wajib untuk role " + string(role))
	}
	return st, nil
}
