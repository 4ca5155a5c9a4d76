package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course")
	ErrSectionNotFound    = core.NewNotFoundError("section")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrAlreadyEnrolled    = core.NewValidationError(errors.New("learner already enrolled in this course"))
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		CreateSection(ctx context.Context, sec Section) (Section, error)
		GetSection(ctx context.Context, id string) (Section, error)
		CreateContentItem(ctx context.Context, item ContentItem) (ContentItem, error)
		QuerySections(ctx context.Context, courseID string) ([]Section, error)
		QueryContentItems(ctx context.Context, courseID string) ([]ContentItem, error)

		// CreateEnrollment returns ErrAlreadyEnrolled if the learner is already enrolled in the course.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
		// UpdateProgressPercent only touches the denormalized progress cache.
		UpdateProgressPercent(ctx context.Context, enrollmentID string, percent int) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		clock    core.Clock
	}
)

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title              string     `json:"title" validate:"required,notblank"`
	OwnerID            string     `json:"owner_id" validate:"required"`
	Drip               DripPolicy `json:"drip"`
	CertificateEnabled bool       `json:"certificate_enabled"`
	HasQuiz            bool       `json:"has_quiz"`
	HasAssignment      bool       `json:"has_assignment"`
}

type NewSection struct {
	CourseID string `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required,notblank"`
	Order    int    `json:"order"`
}

type NewContentItem struct {
	SectionID     string `json:"section_id" validate:"required"`
	Title         string `json:"title" validate:"required,notblank"`
	Order         int    `json:"order"`
	DripDelayDays int    `json:"drip_delay_days" validate:"min=0"`
}

func NewService(repo Repository, validate *validator.Validate, clock core.Clock) *Service {
	return &Service{repo: repo, validate: validate, clock: clock}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	nc.Title = core.CleanString(nc.Title)
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}
	if nc.Drip.ScheduleType == "" {
		nc.Drip.ScheduleType = ScheduleNone
	}
	if err := nc.Drip.Validate(); err != nil {
		return Course{}, err
	}
	return svc.repo.CreateCourse(ctx, Course{
		ID:                 uuid.New().String(),
		Title:              nc.Title,
		OwnerID:            nc.OwnerID,
		Drip:               nc.Drip,
		CertificateEnabled: nc.CertificateEnabled,
		HasQuiz:            nc.HasQuiz,
		HasAssignment:      nc.HasAssignment,
	})
}

func (svc *Service) AddSection(ctx context.Context, ns NewSection) (Section, error) {
	ns.Title = core.CleanString(ns.Title)
	if err := svc.validate.Struct(ns); err != nil {
		return Section{}, err
	}
	if _, err := svc.repo.GetCourse(ctx, ns.CourseID); err != nil {
		return Section{}, errors.Wrap(err, "getting course")
	}
	return svc.repo.CreateSection(ctx, Section{
		ID:       uuid.New().String(),
		CourseID: ns.CourseID,
		Title:    ns.Title,
		Order:    ns.Order,
	})
}

// AddContentItem adds an item to a section. Items added after learners enrolled count towards their progress.
func (svc *Service) AddContentItem(ctx context.Context, ni NewContentItem) (ContentItem, error) {
	ni.Title = core.CleanString(ni.Title)
	if err := svc.validate.Struct(ni); err != nil {
		return ContentItem{}, err
	}
	if _, err := svc.repo.GetSection(ctx, ni.SectionID); err != nil {
		return ContentItem{}, errors.Wrap(err, "getting section")
	}
	return svc.repo.CreateContentItem(ctx, ContentItem{
		ID:            uuid.New().String(),
		SectionID:     ni.SectionID,
		Title:         ni.Title,
		Order:         ni.Order,
		DripDelayDays: ni.DripDelayDays,
	})
}

// Enroll enrolls the learner now.
func (svc *Service) Enroll(ctx context.Context, courseID, learnerID string) (Enrollment, error) {
	return svc.EnrollAt(ctx, courseID, learnerID, svc.clock.Now())
}

// EnrollAt enrolls the learner at the given time, ie: when importing enrollments.
func (svc *Service) EnrollAt(ctx context.Context, courseID, learnerID string, at time.Time) (Enrollment, error) {
	if learnerID == "" {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "learner_id", Error: "this field is required"})
	}
	if at.IsZero() {
		return Enrollment{}, ErrMissingEnrollmentDate
	}
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, errors.Wrap(err, "getting course")
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		ID:         uuid.New().String(),
		CourseID:   courseID,
		LearnerID:  learnerID,
		EnrolledAt: at.UTC(),
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetEnrollment(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

// LoadOutline loads the course's sorted content tree from repo.
func LoadOutline(ctx context.Context, repo Repository, courseID string) (Outline, error) {
	sections, err := repo.QuerySections(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	items, err := repo.QueryContentItems(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying content items")
	}
	return NewOutline(sections, items), nil
}
