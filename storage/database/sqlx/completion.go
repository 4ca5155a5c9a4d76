package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/progression"
)

var completionColumns = []string{"enrollment_id", "course_id", "learner_id", "completed_at"}

type completionRow struct {
	EnrollmentID string    `db:"enrollment_id"`
	CourseID     string    `db:"course_id"`
	LearnerID    string    `db:"learner_id"`
	CompletedAt  time.Time `db:"completed_at"`
}

func (r completionRow) completion() progression.Completion {
	return progression.Completion{
		EnrollmentID: r.EnrollmentID,
		CourseID:     r.CourseID,
		LearnerID:    r.LearnerID,
		CompletedAt:  r.CompletedAt.UTC(),
	}
}

type completionRepository struct {
	db core.DB
}

var _ progression.Repository = (*completionRepository)(nil) // interface compliance check

func NewCompletionRepository(db core.DB) progression.Repository {
	return &completionRepository{db: db}
}

func (repo *completionRepository) RecordCompletion(ctx context.Context, c progression.Completion) (progression.Completion, bool, error) {
	var row completionRow
	err := get(ctx, repo.db, &row, psql.Insert("completion").
		Columns(completionColumns...).
		Values(c.EnrollmentID, c.CourseID, c.LearnerID, c.CompletedAt.UTC()).
		Suffix("ON CONFLICT (enrollment_id) DO NOTHING RETURNING enrollment_id, course_id, learner_id, completed_at"))
	switch errors.Cause(err) {
	case nil:
		return row.completion(), true, nil
	case sql.ErrNoRows: // recorded already
		existing, err := repo.GetCompletion(ctx, c.EnrollmentID)
		return existing, false, err
	default:
		return progression.Completion{}, false, errors.Wrap(err, "inserting completion")
	}
}

func (repo *completionRepository) GetCompletion(ctx context.Context, enrollmentID string) (progression.Completion, error) {
	var row completionRow
	err := get(ctx, repo.db, &row, psql.Select(completionColumns...).From("completion").Where(sq.Eq{"enrollment_id": enrollmentID}))
	if err != nil {
		return progression.Completion{}, trapNoRowsErr(err, progression.ErrCompletionNotFound, "getting completion")
	}
	return row.completion(), nil
}
