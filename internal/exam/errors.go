package exam

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown students, questions and submissions.
	ErrNotFound = errors.New("not found")

	// ErrRetakeNotAllowed is returned by StartSubmission when the student's
	// latest non-archived attempt is already completed. Archiving that
	// attempt is the only way to grant a retake.
	ErrRetakeNotAllowed = errors.New("exam already completed; archive the previous attempt to allow a retake")
)

// NoQuestionsError reports that a student's recorded course resolved zero
// questions at grading time.
type NoQuestionsError struct {
	Course string
}

func (e *NoQuestionsError) Error() string {
	return fmt.Sprintf("no questions available for course %q", e.Course)
}
