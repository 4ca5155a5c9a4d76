package progression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/assessment"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/user"
)

const notifyTimeout = 30 * time.Second

var (
	// errors
	ErrCompletionNotFound = core.NewNotFoundError("completion")
	ErrNotCourseOwner     = core.NewForbiddenError("only the course owner can preview this course")
)

type (
	Repository interface {
		// RecordCompletion inserts c unless the enrollment already has a Completion.
		// It returns the stored Completion and whether this call created it.
		RecordCompletion(ctx context.Context, c Completion) (Completion, bool, error)
		GetCompletion(ctx context.Context, enrollmentID string) (Completion, error)
	}

	Deps struct {
		Courses      course.Repository
		Progress     progress.Repository
		Assessments  assessment.Repository
		Certificates certificate.Repository
		Completions  Repository
		Users        user.Repository
		MailSvc      core.EmailService
		Numbers      *certificate.NumberGenerator
		Clock        core.Clock
		Logger       core.Logger
	}

	// Service is the single path that evaluates enrollments and issues certificates.
	// Every event (lesson completed, quiz graded, assignment reviewed) is written first, then evaluated.
	Service struct {
		courses      course.Repository
		certificates certificate.Repository
		completions  Repository
		users        user.Repository
		progressSvc  *progress.Service
		assessSvc    *assessment.Service
		issuer       *certificate.Issuer
		notifier     *Notifier
		clock        core.Clock
		logger       core.Logger
		pending      sync.WaitGroup // completion notifications
	}
)

func NewService(deps Deps) *Service {
	notifier := NewNotifier(deps.Users, deps.MailSvc)
	return &Service{
		courses:      deps.Courses,
		certificates: deps.Certificates,
		completions:  deps.Completions,
		users:        deps.Users,
		progressSvc:  progress.NewService(deps.Progress, deps.Courses, deps.Clock),
		assessSvc:    assessment.NewService(deps.Assessments, deps.Courses, deps.Clock),
		issuer:       certificate.NewIssuer(deps.Certificates, deps.Numbers, deps.Clock, notifier, deps.Logger),
		notifier:     notifier,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
}

// Result is the outcome of an evaluation.
type Result struct {
	EnrollmentID      string                   `json:"enrollment_id"`
	State             State                    `json:"state"`
	Progress          progress.Progress        `json:"progress"`
	Certificate       *certificate.Certificate `json:"certificate"`
	CertificateIssued bool                     `json:"certificate_issued"` // by this evaluation
	CompletedAt       *time.Time               `json:"completed_at,omitempty"`
}

type snapshot struct {
	course     course.Course
	outline    course.Outline
	enrollment course.Enrollment
	lessons    []progress.LessonProgress
	quiz       assessment.QuizOutcome
	assignment assessment.AssignmentOutcome
	cert       *certificate.Certificate
	completion *Completion
}

func (snap snapshot) progress() progress.Progress {
	return progress.Compute(snap.outline.Items(), progress.CompletedSet(snap.lessons))
}

// load reads everything an evaluation needs, concurrently.
func (svc *Service) load(ctx context.Context, enrollmentID string) (snapshot, error) {
	var snap snapshot
	enr, err := svc.courses.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return snap, errors.Wrap(err, "getting enrollment")
	}
	snap.enrollment = enr

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		crs, err := svc.courses.GetCourse(gctx, enr.CourseID)
		snap.course = crs
		return errors.Wrap(err, "getting course")
	})
	g.Go(func() error {
		outline, err := course.LoadOutline(gctx, svc.courses, enr.CourseID)
		snap.outline = outline
		return errors.Wrap(err, "loading outline")
	})
	g.Go(func() error {
		lessons, err := svc.progressSvc.Query(gctx, enr.ID)
		snap.lessons = lessons
		return errors.Wrap(err, "querying lesson progress")
	})
	g.Go(func() error {
		quiz, assignment, err := svc.assessSvc.Outcomes(gctx, enr.ID)
		snap.quiz, snap.assignment = quiz, assignment
		return err
	})
	g.Go(func() error {
		cert, err := svc.certificates.GetCertificate(gctx, enr.ID)
		switch errors.Cause(err) {
		case nil:
			snap.cert = &cert
		case certificate.ErrNotFound:
		default:
			return errors.Wrap(err, "getting certificate")
		}
		return nil
	})
	g.Go(func() error {
		c, err := svc.completions.GetCompletion(gctx, enr.ID)
		switch errors.Cause(err) {
		case nil:
			snap.completion = &c
		case ErrCompletionNotFound:
		default:
			return errors.Wrap(err, "getting completion")
		}
		return nil
	})

	if err = g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// Evaluate recomputes the enrollment's progress from its lesson records, runs the gates and,
// when they are met, records the completion and issues the certificate.
// It is idempotent and safe to call concurrently or to retry after a failure.
func (svc *Service) Evaluate(ctx context.Context, enrollmentID string) (Result, error) {
	snap, err := svc.load(ctx, enrollmentID)
	if err != nil {
		return Result{}, err
	}

	prog := snap.progress()
	if prog.Percent != snap.enrollment.ProgressPercent {
		if err = svc.courses.UpdateProgressPercent(ctx, snap.enrollment.ID, prog.Percent); err != nil {
			// display cache only: the next evaluation will try again
			svc.logger.Warn("updating progress cache: "+err.Error(), err, snap.enrollment)
		}
	}

	res := Result{
		EnrollmentID: snap.enrollment.ID,
		Progress:     prog,
		Certificate:  snap.cert,
	}
	gateMet := assessment.IsCombinedConditionMet(snap.course, prog, snap.quiz, snap.assignment)

	if gateMet && snap.cert == nil {
		cert, issued, err := svc.issuer.IssueIfEligible(ctx, snap.enrollment, snap.course, gateMet)
		if err != nil {
			return Result{}, errors.Wrap(err, "issuing certificate")
		}
		res.Certificate = cert
		res.CertificateIssued = issued
	}

	if snap.completion != nil {
		res.CompletedAt = &snap.completion.CompletedAt
	} else if gateMet {
		c, created, err := svc.completions.RecordCompletion(ctx, Completion{
			EnrollmentID: snap.enrollment.ID,
			CourseID:     snap.course.ID,
			LearnerID:    snap.enrollment.LearnerID,
			CompletedAt:  svc.clock.Now(),
		})
		if err != nil {
			return Result{}, errors.Wrap(err, "recording completion")
		}
		if created {
			svc.pending.Add(1)
			go func(crs course.Course) {
				defer svc.pending.Done()
				svc.notifyCompletion(c, crs)
			}(snap.course)
		}
		res.CompletedAt = &c.CompletedAt
	}

	res.State = ComputeState(snap.course, prog, snap.quiz, snap.assignment, res.Certificate)
	return res, nil
}

// Wait blocks until background notifications are done, ie: before exiting.
func (svc *Service) Wait() {
	svc.pending.Wait()
	svc.issuer.Wait()
}

func (svc *Service) notifyCompletion(c Completion, crs course.Course) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := svc.notifier.CourseCompleted(ctx, c, crs); err != nil {
		svc.logger.Error(
			fmt.Sprintf("notifying completion of enrollment %s: %v", c.EnrollmentID, err),
			err,
			map[string]interface{}{"course_id": c.CourseID},
		)
	}
}

// MarkLessonComplete records the completion of a content item and evaluates the enrollment.
func (svc *Service) MarkLessonComplete(ctx context.Context, enrollmentID, contentItemID string) (Result, error) {
	if _, _, err := svc.progressSvc.MarkComplete(ctx, enrollmentID, contentItemID); err != nil {
		return Result{}, errors.Wrap(err, "marking lesson complete")
	}
	return svc.Evaluate(ctx, enrollmentID)
}

// RecordQuizOutcome records a graded quiz attempt and evaluates the enrollment.
func (svc *Service) RecordQuizOutcome(ctx context.Context, enrollmentID string, passed bool) (Result, error) {
	if _, _, err := svc.assessSvc.RecordQuizOutcome(ctx, enrollmentID, passed); err != nil {
		return Result{}, errors.Wrap(err, "recording quiz outcome")
	}
	return svc.Evaluate(ctx, enrollmentID)
}

// RecordAssignmentOutcome records an assignment review and evaluates the enrollment.
func (svc *Service) RecordAssignmentOutcome(ctx context.Context, enrollmentID, status, reviewerID string) (Result, error) {
	if _, _, err := svc.assessSvc.RecordAssignmentOutcome(ctx, enrollmentID, status, reviewerID); err != nil {
		return Result{}, errors.Wrap(err, "recording assignment outcome")
	}
	return svc.Evaluate(ctx, enrollmentID)
}

// Certificate returns the enrollment's certificate.
func (svc *Service) Certificate(ctx context.Context, enrollmentID string) (certificate.Certificate, error) {
	return svc.issuer.Get(ctx, enrollmentID)
}

// VerifyCertificate returns the public view of the certificate with the given number.
func (svc *Service) VerifyCertificate(ctx context.Context, number string) (certificate.Verification, error) {
	cert, err := svc.issuer.Lookup(ctx, number)
	if err != nil {
		return certificate.Verification{}, err
	}
	crs, err := svc.courses.GetCourse(ctx, cert.CourseID)
	if err != nil {
		return certificate.Verification{}, errors.Wrap(err, "getting course")
	}
	learner, err := svc.users.GetUser(ctx, cert.LearnerID)
	if err != nil {
		return certificate.Verification{}, errors.Wrap(err, "getting learner")
	}
	return certificate.Verification{
		Number:      cert.Number,
		LearnerName: learner.Name,
		CourseTitle: crs.Title,
		IssuedAt:    cert.IssuedAt,
	}, nil
}
