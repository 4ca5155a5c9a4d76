package progress

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
)

var (
	// errors
	ErrUnknownContentItem = core.NewValidationError(
		errors.New("unknown content item"),
		core.FieldError{Field: "content_item_id", Error: "this item is not part of the enrolled course"},
	)
	ErrContentLocked = core.NewValidationError(
		errors.New("content item is not available yet"),
		core.FieldError{Field: "content_item_id", Error: "this item is not available yet"},
	)
)

type (
	Repository interface {
		// MarkLessonComplete atomically upserts a completed LessonProgress.
		// An already completed row is returned untouched, with created = false.
		MarkLessonComplete(ctx context.Context, lp LessonProgress) (saved LessonProgress, created bool, err error)
		QueryLessonProgress(ctx context.Context, enrollmentID string) ([]LessonProgress, error)
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

// MarkComplete records the completion of a content item. It is idempotent: calling it again returns the
// original record with created = false. Locked (dripped) items are rejected with ErrContentLocked.
func (svc *Service) MarkComplete(ctx context.Context, enrollmentID, contentItemID string) (LessonProgress, bool, error) {
	enr, err := svc.courses.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return LessonProgress{}, false, errors.Wrap(err, "getting enrollment")
	}
	crs, err := svc.courses.GetCourse(ctx, enr.CourseID)
	if err != nil {
		return LessonProgress{}, false, errors.Wrap(err, "getting course")
	}
	outline, err := course.LoadOutline(ctx, svc.courses, crs.ID)
	if err != nil {
		return LessonProgress{}, false, errors.Wrap(err, "loading outline")
	}
	item, ok := outline.Item(contentItemID)
	if !ok {
		return LessonProgress{}, false, ErrUnknownContentItem
	}

	now := svc.clock.Now()
	available, err := course.IsAvailable(crs, item, enr, now)
	if err != nil {
		return LessonProgress{}, false, err
	}
	if !available {
		return LessonProgress{}, false, ErrContentLocked
	}

	lp, created, err := svc.repo.MarkLessonComplete(ctx, LessonProgress{
		EnrollmentID:  enr.ID,
		ContentItemID: item.ID,
		Completed:     true,
		CompletedAt:   now,
	})
	if err != nil {
		return LessonProgress{}, false, errors.Wrap(err, "saving lesson progress")
	}
	return lp, created, nil
}

func (svc *Service) Query(ctx context.Context, enrollmentID string) ([]LessonProgress, error) {
	return svc.repo.QueryLessonProgress(ctx, enrollmentID)
}
