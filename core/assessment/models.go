package assessment

import (
	"time"

	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
)

// Assignment statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var Statuses = []string{StatusPending, StatusApproved, StatusRejected}

// QuizOutcome is the graded quiz result of an enrollment. A pass is never revoked.
type QuizOutcome struct {
	EnrollmentID string    `json:"enrollment_id"`
	Passed       bool      `json:"passed"`
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// AssignmentOutcome is the review status of an enrollment's assignment. An approval is never revoked.
type AssignmentOutcome struct {
	EnrollmentID string    `json:"enrollment_id"`
	Status       string    `json:"status"`
	ReviewerID   string    `json:"reviewer_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Recorded reports whether an outcome exists.
func (o QuizOutcome) Recorded() bool { return o.EnrollmentID != "" }

func (o AssignmentOutcome) Recorded() bool { return o.EnrollmentID != "" }

func (o AssignmentOutcome) Approved() bool { return o.Status == StatusApproved }

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsCombinedConditionMet reports whether all of the course's gates are satisfied:
// every lesson completed, the quiz passed (if any) and the assignment approved (if any).
func IsCombinedConditionMet(crs course.Course, prog progress.Progress, quiz QuizOutcome, assignment AssignmentOutcome) bool {
	if prog.Percent != 100 {
		return false
	}
	if crs.HasQuiz && !quiz.Passed {
		return false
	}
	if crs.HasAssignment && !assignment.Approved() {
		return false
	}
	return true
}

// AnyRecorded reports whether a required assessment has a recorded outcome.
func AnyRecorded(crs course.Course, quiz QuizOutcome, assignment AssignmentOutcome) bool {
	return (crs.HasQuiz && quiz.Recorded()) || (crs.HasAssignment && assignment.Recorded())
}
