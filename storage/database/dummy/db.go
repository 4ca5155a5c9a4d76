// Package dummydb is an in-memory store, used by tests and by the `memory` database engine.
// Each table is guarded by its own lock, so every check-and-write below is atomic.
package dummydb

import (
	"sync"

	"github.com/trezcool/cheti/core/assessment"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
)

type (
	DB struct {
		user        *userTable
		course      *courseTable
		progress    *progressTable
		assessment  *assessmentTable
		certificate *certificateTable
		completion  *completionTable
	}

	userTable struct {
		sync.RWMutex
		table       map[string]*user.User
		mentorships []user.Mentorship
	}

	courseTable struct {
		sync.RWMutex
		courses     map[string]*course.Course
		sections    map[string]*course.Section
		items       map[string]*course.ContentItem
		enrollments map[string]*course.Enrollment
	}

	lessonKey struct {
		enrollmentID  string
		contentItemID string
	}

	progressTable struct {
		sync.RWMutex
		table map[lessonKey]*progress.LessonProgress
	}

	assessmentTable struct {
		sync.RWMutex
		quizzes     map[string]*assessment.QuizOutcome
		assignments map[string]*assessment.AssignmentOutcome
	}

	certificateTable struct {
		sync.RWMutex
		table    map[string]*certificate.Certificate // {enrollmentID: cert}
		byNumber map[string]string                   // {number: enrollmentID}
	}

	completionTable struct {
		sync.RWMutex
		table map[string]*progression.Completion
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			courses:     make(map[string]*course.Course),
			sections:    make(map[string]*course.Section),
			items:       make(map[string]*course.ContentItem),
			enrollments: make(map[string]*course.Enrollment),
		},
		progress: &progressTable{table: make(map[lessonKey]*progress.LessonProgress)},
		assessment: &assessmentTable{
			quizzes:     make(map[string]*assessment.QuizOutcome),
			assignments: make(map[string]*assessment.AssignmentOutcome),
		},
		certificate: &certificateTable{
			table:    make(map[string]*certificate.Certificate),
			byNumber: make(map[string]string),
		},
		completion: &completionTable{table: make(map[string]*progression.Completion)},
	}
	return db, nil
}
