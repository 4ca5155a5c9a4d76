package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/user"
)

var userColumns = []string{"id", "name", "email", "is_active", "roles", "created_at"}

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	IsActive  bool      `db:"is_active"`
	Roles     string    `db:"roles"` // comma separated
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) user() user.User {
	var roles []string
	if r.Roles != "" {
		roles = strings.Split(r.Roles, ",")
	}
	return user.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		IsActive:  r.IsActive,
		Roles:     roles,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	_, err := exec(ctx, repo.db, psql.Insert(`"user"`).
		Columns(userColumns...).
		Values(usr.ID, usr.Name, usr.Email, usr.IsActive, strings.Join(usr.Roles, ","), usr.CreatedAt.UTC()))
	if err != nil {
		if isViolation(err, uniqueViolation, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, where sq.Eq) (user.User, error) {
	var row userRow
	err := get(ctx, repo.db, &row, psql.Select(userColumns...).From(`"user"`).Where(where))
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"email": email})
}

func (repo *userRepository) CreateMentorship(ctx context.Context, m user.Mentorship) error {
	_, err := exec(ctx, repo.db, psql.Insert("mentorship").
		Columns("mentor_id", "learner_id", "course_id").
		Values(m.MentorID, m.LearnerID, null.NewString(m.CourseID, m.CourseID != "")).
		Suffix("ON CONFLICT DO NOTHING"))
	if err != nil {
		if isViolation(err, foreignKeyViolation, "") {
			return user.ErrNotFound
		}
		return errors.Wrap(err, "inserting mentorship")
	}
	return nil
}

func (repo *userRepository) QueryMentors(ctx context.Context, learnerID, courseID string) ([]user.User, error) {
	cols := make([]string, 0, len(userColumns))
	for _, c := range userColumns {
		cols = append(cols, "u."+c)
	}

	var rows []userRow
	err := query(ctx, repo.db, &rows, psql.Select(cols...).Distinct().
		From(`"user" u`).
		Join("mentorship m ON m.mentor_id = u.id").
		Where(sq.Eq{"m.learner_id": learnerID}).
		Where(sq.Or{sq.Eq{"m.course_id": nil}, sq.Eq{"m.course_id": courseID}}).
		Where("u.is_active").
		OrderBy("u.name"))
	if err != nil {
		return nil, errors.Wrap(err, "querying mentors")
	}

	mentors := make([]user.User, 0, len(rows))
	for _, r := range rows {
		mentors = append(mentors, r.user())
	}
	return mentors, nil
}
