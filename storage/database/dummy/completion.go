package dummydb

import (
	"context"

	"github.com/trezcool/cheti/core/progression"
)

type completionRepository struct {
	db *completionTable
}

var _ progression.Repository = (*completionRepository)(nil) // interface compliance check

func NewCompletionRepository(db *DB) progression.Repository {
	return &completionRepository{db: db.completion}
}

func (repo *completionRepository) RecordCompletion(_ context.Context, c progression.Completion) (progression.Completion, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.table[c.EnrollmentID]; ok {
		return *existing, false, nil
	}
	repo.db.table[c.EnrollmentID] = &c
	return c, true, nil
}

func (repo *completionRepository) GetCompletion(_ context.Context, enrollmentID string) (progression.Completion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[enrollmentID]; ok {
		return *c, nil
	}
	return progression.Completion{}, progression.ErrCompletionNotFound
}
