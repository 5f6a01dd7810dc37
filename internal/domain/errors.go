package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an interview session does not exist.
	ErrSessionNotFound = errors.New("interview session not found")
	// ErrPositionNotFound indicates the position is missing or inactive.
	ErrPositionNotFound = errors.New("position not found")
	// ErrTopicNotFound indicates a position has no usable linked topic.
	ErrTopicNotFound = errors.New("no topics available for this position")
	// ErrQuestionNotFound indicates a referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCandidateNotFound indicates the candidate identity record is missing.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrResultNotFound indicates no final result has been recorded.
	ErrResultNotFound = errors.New("result not found")

	// ErrValidation is wrapped by all input validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrIncompleteSubmission is returned when a submission misses presented questions.
	ErrIncompleteSubmission = errors.New("submission does not answer every question")
	// ErrSessionCompleted rejects resubmission of an already-completed session.
	ErrSessionCompleted = errors.New("interview session already completed")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound,
		ErrPositionNotFound,
		ErrTopicNotFound,
		ErrQuestionNotFound,
		ErrCandidateNotFound,
		ErrResultNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a user-correctable input failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrIncompleteSubmission) ||
		errors.Is(err, ErrSessionCompleted)
}
