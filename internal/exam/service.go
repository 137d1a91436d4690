package exam

import (
	"context"
	"encoding/json"

	"github.com/ujian-kita/examportal/internal/grading"
)

// Service ties the submission lifecycle to the grading engine. The store owns
// all persistence; the grader stays a pure function of questions + answers.
type Service struct {
	store  *SQLStore
	grader *grading.Grader
}

func NewService(store *SQLStore, grader *grading.Grader) *Service {
	return &Service{store: store, grader: grader}
}

func (s *Service) Store() *SQLStore { return s.store }

// Start begins or resumes the student's attempt (see SQLStore.StartSubmission).
func (s *Service) Start(ctx context.Context, studentID int64) (Submission, error) {
	return s.store.StartSubmission(ctx, studentID)
}

// QuestionsForCourse returns the student-safe question list for a course.
func (s *Service) QuestionsForCourse(ctx context.Context, course string) ([]PublicQuestion, error) {
	qs, err := s.store.QuestionsForCourse(ctx, course)
	if err != nil {
		return nil, err
	}
	out := make([]PublicQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Public())
	}
	return out, nil
}

// Submit grades the raw answer map against the student's course questions and
// completes the submission. Submitting an already-completed attempt returns
// the stored result unchanged.
func (s *Service) Submit(ctx context.Context, submissionID string, answers map[string]json.RawMessage) (Submission, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if sub.IsCompleted {
		return sub, nil
	}

	student, err := s.store.GetStudent(ctx, sub.StudentID)
	if err != nil {
		return Submission{}, err
	}

	questions, err := s.participatingQuestions(ctx, student)
	if err != nil {
		return Submission{}, err
	}

	views := make([]grading.Q, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.GradingView())
	}
	summary := s.grader.GradeExam(views, answers)

	return s.store.CompleteSubmission(ctx, submissionID, answers, summary.Percentage)
}

// Result fetches a submission for the result page.
func (s *Service) Result(ctx context.Context, submissionID string) (Submission, error) {
	return s.store.GetSubmission(ctx, submissionID)
}

// participatingQuestions selects the question set a student is graded
// against: their course's questions, or the full bank when no course was
// recorded (legacy sessions from before course selection existed). A named
// course resolving zero questions is an error, not a silent zero score.
func (s *Service) participatingQuestions(ctx context.Context, student Student) ([]Question, error) {
	course := grading.Normalize(student.Course)
	if course == "" {
		return s.store.ListQuestions(ctx)
	}
	questions, err := s.store.QuestionsForCourse(ctx, student.Course)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, &NoQuestionsError{Course: course}
	}
	return questions, nil
}
