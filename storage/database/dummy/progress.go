package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/cheti/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) MarkLessonComplete(_ context.Context, lp progress.LessonProgress) (progress.LessonProgress, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := lessonKey{enrollmentID: lp.EnrollmentID, contentItemID: lp.ContentItemID}
	if existing, ok := repo.db.table[key]; ok && existing.Completed {
		return *existing, false, nil
	}
	lp.Completed = true
	repo.db.table[key] = &lp
	return lp, true, nil
}

func (repo *progressRepository) QueryLessonProgress(_ context.Context, enrollmentID string) ([]progress.LessonProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lps := make([]progress.LessonProgress, 0)
	for key, lp := range repo.db.table {
		if key.enrollmentID == enrollmentID {
			lps = append(lps, *lp)
		}
	}
	sort.Slice(lps, func(i, j int) bool { return lps[i].ContentItemID < lps[j].ContentItemID })
	return lps, nil
}
