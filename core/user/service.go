package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		CreateMentorship(ctx context.Context, m Mentorship) error
		// QueryMentors returns the active mentors following the learner on the course (or on all courses).
		QueryMentors(ctx context.Context, learnerID, courseID string) ([]User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		clock    core.Clock
	}
)

func NewService(repo Repository, validate *validator.Validate, clock core.Clock) *Service {
	return &Service{repo: repo, validate: validate, clock: clock}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	usr := User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: svc.clock.Now(),
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// AddMentor makes mentor follow the learner, on courseID or on all courses when empty.
func (svc *Service) AddMentor(ctx context.Context, mentorID, learnerID, courseID string) error {
	mentor, err := svc.repo.GetUser(ctx, mentorID)
	if err != nil {
		return errors.Wrap(err, "getting mentor")
	}
	if !mentor.IsMentor() {
		return core.NewValidationError(nil, core.FieldError{Field: "mentor", Error: "user is not a mentor"})
	}
	if _, err = svc.repo.GetUser(ctx, learnerID); err != nil {
		return errors.Wrap(err, "getting learner")
	}
	return svc.repo.CreateMentorship(ctx, Mentorship{MentorID: mentorID, LearnerID: learnerID, CourseID: courseID})
}
