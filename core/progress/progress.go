package progress

import (
	"math"
	"time"

	"github.com/trezcool/cheti/core/course"
)

// LessonProgress records the completion of a content item by an enrollment.
// Once completed, it never goes back.
type LessonProgress struct {
	EnrollmentID  string    `json:"enrollment_id"`
	ContentItemID string    `json:"content_item_id"`
	Completed     bool      `json:"completed"`
	CompletedAt   time.Time `json:"completed_at"` // UTC
}

type Progress struct {
	Percent        int `json:"percent"`
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
}

// IsComplete reports whether every content item is completed. A course without content is never complete.
func (p Progress) IsComplete() bool {
	return p.TotalCount > 0 && p.CompletedCount == p.TotalCount
}

// CompletedSet indexes the completed items of a list of LessonProgress.
func CompletedSet(lps []LessonProgress) map[string]bool {
	completed := make(map[string]bool, len(lps))
	for _, lp := range lps {
		if lp.Completed {
			completed[lp.ContentItemID] = true
		}
	}
	return completed
}

// Compute derives the progress over the course's current items.
// Completed items that are no longer part of the course are ignored.
// The percent is rounded half up and is 100 iff every item is completed.
func Compute(items []course.ContentItem, completed map[string]bool) Progress {
	p := Progress{TotalCount: len(items)}
	for _, it := range items {
		if completed[it.ID] {
			p.CompletedCount++
		}
	}
	if p.TotalCount == 0 {
		return p
	}

	p.Percent = int(math.Round(100 * float64(p.CompletedCount) / float64(p.TotalCount)))
	if p.Percent >= 100 && p.CompletedCount < p.TotalCount {
		p.Percent = 99
	}
	return p
}

// ResumeTarget returns the item a learner should resume at: the first available item not yet completed,
// else the first available item. Items must be in outline order.
func ResumeTarget(items []course.ContentItem, completed, available map[string]bool) *course.ContentItem {
	var firstAvailable *course.ContentItem
	for i := range items {
		it := items[i]
		if !available[it.ID] {
			continue
		}
		if !completed[it.ID] {
			return &it
		}
		if firstAvailable == nil {
			firstAvailable = &it
		}
	}
	return firstAvailable
}
