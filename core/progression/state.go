package progression

import (
	"time"

	"github.com/trezcool/cheti/core/assessment"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
)

// State is where an enrollment stands on its way to completion.
type State string

const (
	StateInProgress         State = "in_progress"
	StateLessonsComplete    State = "lessons_complete"    // all lessons done, no assessment outcome yet
	StateAssessmentsPending State = "assessments_pending" // all lessons done, assessments attempted but not satisfied
	StateEligible           State = "eligible"            // gates met, certificate not written yet
	StateCertified          State = "certified"
	StateCompleted          State = "completed" // gates met on a course without certificate
)

// Completion records the first time an enrollment met all of its course gates.
type Completion struct {
	EnrollmentID string    `json:"enrollment_id"`
	CourseID     string    `json:"course_id"`
	LearnerID    string    `json:"learner_id"`
	CompletedAt  time.Time `json:"completed_at"` // UTC
}

// ComputeState derives the enrollment state. A certificate is absorbing: once issued, the state stays certified.
func ComputeState(
	crs course.Course,
	prog progress.Progress,
	quiz assessment.QuizOutcome,
	assignment assessment.AssignmentOutcome,
	cert *certificate.Certificate,
) State {
	if cert != nil {
		return StateCertified
	}
	if assessment.IsCombinedConditionMet(crs, prog, quiz, assignment) {
		if crs.CertificateEnabled {
			return StateEligible
		}
		return StateCompleted
	}
	if prog.Percent != 100 {
		return StateInProgress
	}
	if assessment.AnyRecorded(crs, quiz, assignment) {
		return StateAssessmentsPending
	}
	return StateLessonsComplete
}
