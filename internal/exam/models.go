package exam

import (
	"encoding/json"
	"sort"

	"github.com/ujian-kita/examportal/internal/grading"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleProctor Role = "proctor"
	RoleAdmin   Role = "admin"
)

// Privileged reports whether the role requires password verification at login.
func (r Role) Privileged() bool { return r == RoleAdmin || r == RoleProctor }

type Student struct {
	ID           int64  `json:"id"`
	NIM          string `json:"nim"`
	FullName     string `json:"full_name,omitempty"`
	ClassName    string `json:"class_name,omitempty"`
	Course       string `json:"course,omitempty"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
	CreatedBy    int64  `json:"created_by,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

type Question struct {
	ID           int64                `json:"id"`
	Text         string               `json:"text"`
	Type         grading.QuestionType `json:"type"`
	Options      []string             `json:"options"`
	CorrectIndex int                  `json:"correct_index"`
	CorrectText  string               `json:"correct_text,omitempty"`
	Points       int                  `json:"points"`
	CourseName   string               `json:"course_name,omitempty"`
}

// GradingView narrows a question to the fields the grading engine needs.
func (q Question) GradingView() grading.Q {
	return grading.Q{
		ID:           q.ID,
		Type:         q.Type,
		Options:      q.Options,
		CorrectIndex: q.CorrectIndex,
		CorrectText:  q.CorrectText,
		Points:       q.Points,
	}
}

// PublicQuestion is the student-safe view: all answer-key fields stripped.
// Matching questions expose their left items and the pool of right-hand
// values so a client can render selectors without seeing the pairing.
type PublicQuestion struct {
	ID            int64                `json:"id"`
	Text          string               `json:"text"`
	Type          grading.QuestionType `json:"type"`
	Options       []string             `json:"options,omitempty"`
	Points        int                  `json:"points"`
	CourseName    string               `json:"course_name,omitempty"`
	MatchingLeft  []string             `json:"matching_left,omitempty"`
	MatchingRight []string             `json:"matching_right,omitempty"`
}

// Public strips answer keys from a question. Left items and right options of
// a matching question are emitted in sorted order; presentation shuffling is
// a client concern.
func (q Question) Public() PublicQuestion {
	p := PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Points:     q.Points,
		CourseName: q.CourseName,
	}
	switch q.Type {
	case grading.TypeMatching:
		key := grading.ParseMatchingKey(q.CorrectText)
		seen := map[string]bool{}
		for left, right := range key {
			p.MatchingLeft = append(p.MatchingLeft, left)
			if !seen[right] {
				seen[right] = true
				p.MatchingRight = append(p.MatchingRight, right)
			}
		}
		sort.Strings(p.MatchingLeft)
		sort.Strings(p.MatchingRight)
	default:
		p.Options = q.Options
	}
	return p
}

// Submission is one student's exam attempt. Score stays nil until the attempt
// is completed; archived submissions are retained as history.
type Submission struct {
	ID          string                     `json:"id"`
	StudentID   int64                      `json:"student_id"`
	Score       *int                       `json:"score"`
	Answers     map[string]json.RawMessage `json:"answers"`
	StartTime   int64                      `json:"start_time"`
	EndTime     *int64                     `json:"end_time,omitempty"`
	IsCompleted bool                       `json:"is_completed"`
	IsArchived  bool                       `json:"is_archived"`
	ArchivedAt  *int64                     `json:"archived_at,omitempty"`
}

// SubmissionWithStudent is the admin listing row.
type SubmissionWithStudent struct {
	Submission Submission `json:"submission"`
	Student    Student    `json:"student"`
}

// Settings is the singleton configuration record.
type Settings struct {
	ID               int64          `json:"id"`
	ExamDuration     int            `json:"exam_duration"` // minutes
	ExamTitle        string         `json:"exam_title"`
	Instructions     string         `json:"instructions"`
	PassingScore     int            `json:"passing_score"`
	AvailableClasses []string       `json:"available_classes"`
	AvailableCourses []string       `json:"available_courses"`
	ActiveCourses    []string       `json:"active_courses"`
	CourseDurations  map[string]int `json:"course_durations"`
	AppLogo          string         `json:"app_logo,omitempty"`
}

// DurationFor returns the exam duration in minutes for a course, honoring
// per-course overrides.
func (s Settings) DurationFor(course string) int {
	for name, mins := range s.CourseDurations {
		if grading.Normalize(name) == grading.Normalize(course) && mins > 0 {
			return mins
		}
	}
	return s.ExamDuration
}
