package dummydb

import (
	"context"

	"github.com/trezcool/cheti/core/assessment"
)

type assessmentRepository struct {
	db *assessmentTable
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db.assessment}
}

func (repo *assessmentRepository) GetQuizOutcome(_ context.Context, enrollmentID string) (assessment.QuizOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.quizzes[enrollmentID]; ok {
		return *o, nil
	}
	return assessment.QuizOutcome{}, nil
}

func (repo *assessmentRepository) SaveQuizOutcome(_ context.Context, o assessment.QuizOutcome) (assessment.QuizOutcome, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.quizzes[o.EnrollmentID]; ok {
		if existing.Passed || !o.Passed {
			return *existing, false, nil
		}
	}
	repo.db.quizzes[o.EnrollmentID] = &o
	return o, true, nil
}

func (repo *assessmentRepository) GetAssignmentOutcome(_ context.Context, enrollmentID string) (assessment.AssignmentOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.assignments[enrollmentID]; ok {
		return *o, nil
	}
	return assessment.AssignmentOutcome{}, nil
}

func (repo *assessmentRepository) SaveAssignmentOutcome(_ context.Context, o assessment.AssignmentOutcome) (assessment.AssignmentOutcome, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.assignments[o.EnrollmentID]; ok {
		if existing.Approved() || existing.Status == o.Status {
			return *existing, false, nil
		}
	}
	repo.db.assignments[o.EnrollmentID] = &o
	return o, true, nil
}
