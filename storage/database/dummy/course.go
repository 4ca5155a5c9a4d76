package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/cheti/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CreateSection(_ context.Context, sec course.Section) (course.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[sec.CourseID]; !ok {
		return course.Section{}, course.ErrNotFound
	}
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *courseRepository) GetSection(_ context.Context, id string) (course.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return *sec, nil
	}
	return course.Section{}, course.ErrSectionNotFound
}

func (repo *courseRepository) CreateContentItem(_ context.Context, item course.ContentItem) (course.ContentItem, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sections[item.SectionID]; !ok {
		return course.ContentItem{}, course.ErrSectionNotFound
	}
	if err := item.Validate(); err != nil {
		return course.ContentItem{}, err
	}
	repo.db.items[item.ID] = &item
	return item, nil
}

func (repo *courseRepository) QuerySections(_ context.Context, courseID string) ([]course.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sections := make([]course.Section, 0)
	for _, sec := range repo.db.sections {
		if sec.CourseID == courseID {
			sections = append(sections, *sec)
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	return sections, nil
}

func (repo *courseRepository) QueryContentItems(_ context.Context, courseID string) ([]course.ContentItem, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]course.ContentItem, 0)
	for _, it := range repo.db.items {
		if sec, ok := repo.db.sections[it.SectionID]; ok && sec.CourseID == courseID {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[enr.CourseID]; !ok {
		return course.Enrollment{}, course.ErrNotFound
	}
	for _, e := range repo.db.enrollments {
		if e.CourseID == enr.CourseID && e.LearnerID == enr.LearnerID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, id string) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, courseID string) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.CourseID == courseID {
			enrollments = append(enrollments, *enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

func (repo *courseRepository) UpdateProgressPercent(_ context.Context, enrollmentID string, percent int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr, ok := repo.db.enrollments[enrollmentID]
	if !ok {
		return course.ErrEnrollmentNotFound
	}
	enr.ProgressPercent = percent
	return nil
}
