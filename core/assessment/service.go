package assessment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
)

var (
	// errors
	ErrInvalidStatus = core.NewValidationError(
		errors.New("invalid assignment status"),
		core.FieldError{Field: "status", Error: "must be one of: pending, approved, rejected"},
	)
	ErrNoQuiz       = core.NewValidationError(errors.New("this course has no quiz"))
	ErrNoAssignment = core.NewValidationError(errors.New("this course has no assignment"))
)

type (
	// Repository saves outcomes monotonically: a pass or an approval is kept whatever comes next.
	Repository interface {
		// GetQuizOutcome returns a zero QuizOutcome when none is recorded.
		GetQuizOutcome(ctx context.Context, enrollmentID string) (QuizOutcome, error)
		// SaveQuizOutcome returns the stored outcome and whether it changed.
		SaveQuizOutcome(ctx context.Context, o QuizOutcome) (QuizOutcome, bool, error)
		// GetAssignmentOutcome returns a zero AssignmentOutcome when none is recorded.
		GetAssignmentOutcome(ctx context.Context, enrollmentID string) (AssignmentOutcome, error)
		// SaveAssignmentOutcome returns the stored outcome and whether it changed.
		SaveAssignmentOutcome(ctx context.Context, o AssignmentOutcome) (AssignmentOutcome, bool, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
		clock   core.Clock
	}
)

func NewService(repo Repository, courses course.Repository, clock core.Clock) *Service {
	return &Service{repo: repo, courses: courses, clock: clock}
}

func (svc *Service) enrollmentCourse(ctx context.Context, enrollmentID string) (course.Course, error) {
	enr, err := svc.courses.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting enrollment")
	}
	crs, err := svc.courses.GetCourse(ctx, enr.CourseID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

// RecordQuizOutcome records a graded quiz attempt. A failed attempt after a pass changes nothing.
func (svc *Service) RecordQuizOutcome(ctx context.Context, enrollmentID string, passed bool) (QuizOutcome, bool, error) {
	crs, err := svc.enrollmentCourse(ctx, enrollmentID)
	if err != nil {
		return QuizOutcome{}, false, err
	}
	if !crs.HasQuiz {
		return QuizOutcome{}, false, ErrNoQuiz
	}

	o, changed, err := svc.repo.SaveQuizOutcome(ctx, QuizOutcome{
		EnrollmentID: enrollmentID,
		Passed:       passed,
		UpdatedAt:    svc.clock.Now(),
	})
	if err != nil {
		return QuizOutcome{}, false, errors.Wrap(err, "saving quiz outcome")
	}
	return o, changed, nil
}

// RecordAssignmentOutcome records an assignment review. Once approved, the outcome never changes.
func (svc *Service) RecordAssignmentOutcome(ctx context.Context, enrollmentID, status, reviewerID string) (AssignmentOutcome, bool, error) {
	status = core.CleanString(status, true /* lower */)
	if !IsValidStatus(status) {
		return AssignmentOutcome{}, false, ErrInvalidStatus
	}
	crs, err := svc.enrollmentCourse(ctx, enrollmentID)
	if err != nil {
		return AssignmentOutcome{}, false, err
	}
	if !crs.HasAssignment {
		return AssignmentOutcome{}, false, ErrNoAssignment
	}

	o, changed, err := svc.repo.SaveAssignmentOutcome(ctx, AssignmentOutcome{
		EnrollmentID: enrollmentID,
		Status:       status,
		ReviewerID:   reviewerID,
		UpdatedAt:    svc.clock.Now(),
	})
	if err != nil {
		return AssignmentOutcome{}, false, errors.Wrap(err, "saving assignment outcome")
	}
	return o, changed, nil
}

// Outcomes returns the recorded outcomes of an enrollment; missing ones are zero values.
func (svc *Service) Outcomes(ctx context.Context, enrollmentID string) (QuizOutcome, AssignmentOutcome, error) {
	quiz, err := svc.repo.GetQuizOutcome(ctx, enrollmentID)
	if err != nil {
		return QuizOutcome{}, AssignmentOutcome{}, errors.Wrap(err, "getting quiz outcome")
	}
	assignment, err := svc.repo.GetAssignmentOutcome(ctx, enrollmentID)
	if err != nil {
		return QuizOutcome{}, AssignmentOutcome{}, errors.Wrap(err, "getting assignment outcome")
	}
	return quiz, assignment, nil
}
