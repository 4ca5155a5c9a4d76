package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/progress"
)

var lessonColumns = []string{"enrollment_id", "content_item_id", "completed", "completed_at"}

type lessonRow struct {
	EnrollmentID  string    `db:"enrollment_id"`
	ContentItemID string    `db:"content_item_id"`
	Completed     bool      `db:"completed"`
	CompletedAt   null.Time `db:"completed_at"`
}

func (r lessonRow) lessonProgress() progress.LessonProgress {
	return progress.LessonProgress{
		EnrollmentID:  r.EnrollmentID,
		ContentItemID: r.ContentItemID,
		Completed:     r.Completed,
		CompletedAt:   r.CompletedAt.Time.UTC(),
	}
}

type progressRepository struct {
	db core.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db core.DB) progress.Repository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) MarkLessonComplete(ctx context.Context, lp progress.LessonProgress) (progress.LessonProgress, bool, error) {
	var row lessonRow
	err := get(ctx, repo.db, &row, psql.Insert("lesson_progress").
		Columns(lessonColumns...).
		Values(lp.EnrollmentID, lp.ContentItemID, true, lp.CompletedAt.UTC()).
		Suffix(
			"ON CONFLICT (enrollment_id, content_item_id) DO UPDATE " +
				"SET completed = true, completed_at = EXCLUDED.completed_at " +
				"WHERE NOT lesson_progress.completed " +
				"RETURNING enrollment_id, content_item_id, completed, completed_at",
		))
	switch errors.Cause(err) {
	case nil:
		return row.lessonProgress(), true, nil
	case sql.ErrNoRows: // already completed
	default:
		return progress.LessonProgress{}, false, errors.Wrap(err, "upserting lesson progress")
	}

	err = get(ctx, repo.db, &row, psql.Select(lessonColumns...).
		From("lesson_progress").
		Where(sq.Eq{"enrollment_id": lp.EnrollmentID, "content_item_id": lp.ContentItemID}))
	if err != nil {
		return progress.LessonProgress{}, false, errors.Wrap(err, "getting lesson progress")
	}
	return row.lessonProgress(), false, nil
}

func (repo *progressRepository) QueryLessonProgress(ctx context.Context, enrollmentID string) ([]progress.LessonProgress, error) {
	var rows []lessonRow
	err := query(ctx, repo.db, &rows, psql.Select(lessonColumns...).
		From("lesson_progress").
		Where(sq.Eq{"enrollment_id": enrollmentID}).
		OrderBy("content_item_id"))
	if err != nil {
		return nil, errors.Wrap(err, "querying lesson progress")
	}

	lps := make([]progress.LessonProgress, 0, len(rows))
	for _, r := range rows {
		lps = append(lps, r.lessonProgress())
	}
	return lps, nil
}
