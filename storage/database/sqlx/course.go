package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
)

var (
	courseColumns = []string{
		"id", "title", "owner_id", "drip_enabled", "drip_schedule_type", "release_day_of_week",
		"certificate_enabled", "has_quiz", "has_assignment",
	}
	sectionColumns    = []string{"id", "course_id", "title", `"order"`}
	itemColumns       = []string{"id", "section_id", "title", `"order"`, "drip_delay_days"}
	enrollmentColumns = []string{"id", "course_id", "learner_id", "enrolled_at", "progress_percent"}
)

type (
	courseRow struct {
		ID                 string `db:"id"`
		Title              string `db:"title"`
		OwnerID            string `db:"owner_id"`
		DripEnabled        bool   `db:"drip_enabled"`
		DripScheduleType   string `db:"drip_schedule_type"`
		ReleaseDayOfWeek   int    `db:"release_day_of_week"`
		CertificateEnabled bool   `db:"certificate_enabled"`
		HasQuiz            bool   `db:"has_quiz"`
		HasAssignment      bool   `db:"has_assignment"`
	}

	sectionRow struct {
		ID       string `db:"id"`
		CourseID string `db:"course_id"`
		Title    string `db:"title"`
		Order    int    `db:"order"`
	}

	itemRow struct {
		ID            string `db:"id"`
		SectionID     string `db:"section_id"`
		Title         string `db:"title"`
		Order         int    `db:"order"`
		DripDelayDays int    `db:"drip_delay_days"`
	}

	enrollmentRow struct {
		ID              string    `db:"id"`
		CourseID        string    `db:"course_id"`
		LearnerID       string    `db:"learner_id"`
		EnrolledAt      time.Time `db:"enrolled_at"`
		ProgressPercent int       `db:"progress_percent"`
	}
)

func (r courseRow) course() course.Course {
	return course.Course{
		ID:      r.ID,
		Title:   r.Title,
		OwnerID: r.OwnerID,
		Drip: course.DripPolicy{
			Enabled:          r.DripEnabled,
			ScheduleType:     r.DripScheduleType,
			ReleaseDayOfWeek: time.Weekday(r.ReleaseDayOfWeek),
		},
		CertificateEnabled: r.CertificateEnabled,
		HasQuiz:            r.HasQuiz,
		HasAssignment:      r.HasAssignment,
	}
}

func (r enrollmentRow) enrollment() course.Enrollment {
	return course.Enrollment{
		ID:              r.ID,
		CourseID:        r.CourseID,
		LearnerID:       r.LearnerID,
		EnrolledAt:      r.EnrolledAt.UTC(),
		ProgressPercent: r.ProgressPercent,
	}
}

type courseRepository struct {
	db core.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db core.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.Drip.ScheduleType == "" {
		crs.Drip.ScheduleType = course.ScheduleNone
	}
	_, err := exec(ctx, repo.db, psql.Insert("course").
		Columns(courseColumns...).
		Values(
			crs.ID, crs.Title, crs.OwnerID, crs.Drip.Enabled, crs.Drip.ScheduleType, int(crs.Drip.ReleaseDayOfWeek),
			crs.CertificateEnabled, crs.HasQuiz, crs.HasAssignment,
		))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	err := get(ctx, repo.db, &row, psql.Select(courseColumns...).From("course").Where(sq.Eq{"id": id}))
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return row.course(), nil
}

func (repo *courseRepository) CreateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	_, err := exec(ctx, repo.db, psql.Insert("section").
		Columns(sectionColumns...).
		Values(sec.ID, sec.CourseID, sec.Title, sec.Order))
	if err != nil {
		if isViolation(err, foreignKeyViolation, "section_course_id_fkey") {
			return course.Section{}, course.ErrNotFound
		}
		return course.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo *courseRepository) GetSection(ctx context.Context, id string) (course.Section, error) {
	var row sectionRow
	err := get(ctx, repo.db, &row, psql.Select(sectionColumns...).From("section").Where(sq.Eq{"id": id}))
	if err != nil {
		return course.Section{}, trapNoRowsErr(err, course.ErrSectionNotFound, "getting section")
	}
	return course.Section(row), nil
}

func (repo *courseRepository) CreateContentItem(ctx context.Context, item course.ContentItem) (course.ContentItem, error) {
	if err := item.Validate(); err != nil {
		return course.ContentItem{}, err
	}
	_, err := exec(ctx, repo.db, psql.Insert("content_item").
		Columns(itemColumns...).
		Values(item.ID, item.SectionID, item.Title, item.Order, item.DripDelayDays))
	if err != nil {
		if isViolation(err, foreignKeyViolation, "content_item_section_id_fkey") {
			return course.ContentItem{}, course.ErrSectionNotFound
		}
		return course.ContentItem{}, errors.Wrap(err, "inserting content item")
	}
	return item, nil
}

func (repo *courseRepository) QuerySections(ctx context.Context, courseID string) ([]course.Section, error) {
	var rows []sectionRow
	err := query(ctx, repo.db, &rows, psql.Select(sectionColumns...).
		From("section").
		Where(sq.Eq{"course_id": courseID}).
		OrderBy(`"order"`, "id"))
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}

	sections := make([]course.Section, 0, len(rows))
	for _, r := range rows {
		sections = append(sections, course.Section(r))
	}
	return sections, nil
}

func (repo *courseRepository) QueryContentItems(ctx context.Context, courseID string) ([]course.ContentItem, error) {
	cols := make([]string, 0, len(itemColumns))
	for _, c := range itemColumns {
		cols = append(cols, "ci."+c)
	}

	var rows []itemRow
	err := query(ctx, repo.db, &rows, psql.Select(cols...).
		From("content_item ci").
		Join("section s ON s.id = ci.section_id").
		Where(sq.Eq{"s.course_id": courseID}).
		OrderBy(`s."order"`, `ci."order"`, "ci.id"))
	if err != nil {
		return nil, errors.Wrap(err, "querying content items")
	}

	items := make([]course.ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, course.ContentItem(r))
	}
	return items, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	_, err := exec(ctx, repo.db, psql.Insert("enrollment").
		Columns(enrollmentColumns...).
		Values(enr.ID, enr.CourseID, enr.LearnerID, enr.EnrolledAt.UTC(), enr.ProgressPercent))
	if err != nil {
		switch {
		case isViolation(err, uniqueViolation, "enrollment_course_id_learner_id_key"):
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		case isViolation(err, foreignKeyViolation, "enrollment_course_id_fkey"):
			return course.Enrollment{}, course.ErrNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, id string) (course.Enrollment, error) {
	var row enrollmentRow
	err := get(ctx, repo.db, &row, psql.Select(enrollmentColumns...).From("enrollment").Where(sq.Eq{"id": id}))
	if err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "getting enrollment")
	}
	return row.enrollment(), nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	err := query(ctx, repo.db, &rows, psql.Select(enrollmentColumns...).
		From("enrollment").
		Where(sq.Eq{"course_id": courseID}).
		OrderBy("enrolled_at", "id"))
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (repo *courseRepository) UpdateProgressPercent(ctx context.Context, enrollmentID string, percent int) error {
	res, err := exec(ctx, repo.db, psql.Update("enrollment").
		Set("progress_percent", percent).
		Where(sq.Eq{"id": enrollmentID}))
	if err != nil {
		return errors.Wrap(err, "updating progress percent")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrEnrollmentNotFound
	}
	return nil
}
