package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/assessment"
)

var (
	quizColumns       = []string{"enrollment_id", "passed", "updated_at"}
	assignmentColumns = []string{"enrollment_id", "status", "reviewer_id", "updated_at"}
)

type (
	quizRow struct {
		EnrollmentID string    `db:"enrollment_id"`
		Passed       bool      `db:"passed"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	assignmentRow struct {
		EnrollmentID string      `db:"enrollment_id"`
		Status       string      `db:"status"`
		ReviewerID   null.String `db:"reviewer_id"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}
)

func (r quizRow) outcome() assessment.QuizOutcome {
	return assessment.QuizOutcome{EnrollmentID: r.EnrollmentID, Passed: r.Passed, UpdatedAt: r.UpdatedAt.UTC()}
}

func (r assignmentRow) outcome() assessment.AssignmentOutcome {
	return assessment.AssignmentOutcome{
		EnrollmentID: r.EnrollmentID,
		Status:       r.Status,
		ReviewerID:   r.ReviewerID.String,
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type assessmentRepository struct {
	db core.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db core.DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) GetQuizOutcome(ctx context.Context, enrollmentID string) (assessment.QuizOutcome, error) {
	var row quizRow
	err := get(ctx, repo.db, &row, psql.Select(quizColumns...).From("quiz_outcome").Where(sq.Eq{"enrollment_id": enrollmentID}))
	switch errors.Cause(err) {
	case nil:
		return row.outcome(), nil
	case sql.ErrNoRows:
		return assessment.QuizOutcome{}, nil
	default:
		return assessment.QuizOutcome{}, errors.Wrap(err, "getting quiz outcome")
	}
}

func (repo *assessmentRepository) SaveQuizOutcome(ctx context.Context, o assessment.QuizOutcome) (assessment.QuizOutcome, bool, error) {
	var row quizRow
	err := get(ctx, repo.db, &row, psql.Insert("quiz_outcome").
		Columns(quizColumns...).
		Values(o.EnrollmentID, o.Passed, o.UpdatedAt.UTC()).
		Suffix(
			"ON CONFLICT (enrollment_id) DO UPDATE " +
				"SET passed = true, updated_at = EXCLUDED.updated_at " +
				"WHERE NOT quiz_outcome.passed AND EXCLUDED.passed " +
				"RETURNING enrollment_id, passed, updated_at",
		))
	switch errors.Cause(err) {
	case nil:
		return row.outcome(), true, nil
	case sql.ErrNoRows: // unchanged
		existing, err := repo.GetQuizOutcome(ctx, o.EnrollmentID)
		return existing, false, err
	default:
		return assessment.QuizOutcome{}, false, errors.Wrap(err, "upserting quiz outcome")
	}
}

func (repo *assessmentRepository) GetAssignmentOutcome(ctx context.Context, enrollmentID string) (assessment.AssignmentOutcome, error) {
	var row assignmentRow
	err := get(ctx, repo.db, &row, psql.Select(assignmentColumns...).From("assignment_outcome").Where(sq.Eq{"enrollment_id": enrollmentID}))
	switch errors.Cause(err) {
	case nil:
		return row.outcome(), nil
	case sql.ErrNoRows:
		return assessment.AssignmentOutcome{}, nil
	default:
		return assessment.AssignmentOutcome{}, errors.Wrap(err, "getting assignment outcome")
	}
}

func (repo *assessmentRepository) SaveAssignmentOutcome(ctx context.Context, o assessment.AssignmentOutcome) (assessment.AssignmentOutcome, bool, error) {
	var row assignmentRow
	err := get(ctx, repo.db, &row, psql.Insert("assignment_outcome").
		Columns(assignmentColumns...).
		Values(o.EnrollmentID, o.Status, null.NewString(o.ReviewerID, o.ReviewerID != ""), o.UpdatedAt.UTC()).
		Suffix(
			"ON CONFLICT (enrollment_id) DO UPDATE " +
				"SET status = EXCLUDED.status, reviewer_id = EXCLUDED.reviewer_id, updated_at = EXCLUDED.updated_at " +
				"WHERE assignment_outcome.status <> 'approved' AND assignment_outcome.status <> EXCLUDED.status " +
				"RETURNING enrollment_id, status, reviewer_id, updated_at",
		))
	switch errors.Cause(err) {
	case nil:
		return row.outcome(), true, nil
	case sql.ErrNoRows: // unchanged
		existing, err := repo.GetAssignmentOutcome(ctx, o.EnrollmentID)
		return existing, false, err
	default:
		return assessment.AssignmentOutcome{}, false, errors.Wrap(err, "upserting assignment outcome")
	}
}
