package progression

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core/assessment"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/user"
)

type (
	ItemView struct {
		course.ContentItem
		Available     bool       `json:"available"`
		AvailableFrom *time.Time `json:"available_from,omitempty"`
		Completed     bool       `json:"completed"`
		CompletedAt   *time.Time `json:"completed_at,omitempty"`
	}

	SectionView struct {
		course.Section
		Items []ItemView `json:"items"`
	}

	// Overview is what a learner sees when opening a course.
	Overview struct {
		Result
		Course          course.Course                 `json:"course"`
		Enrollment      *course.Enrollment            `json:"enrollment,omitempty"`
		Sections        []SectionView                 `json:"sections"`
		ResumeItemID    string                        `json:"resume_item_id,omitempty"`
		NextReleaseDate *time.Time                    `json:"next_release_date,omitempty"`
		Quiz            *assessment.QuizOutcome       `json:"quiz,omitempty"`
		Assignment      *assessment.AssignmentOutcome `json:"assignment,omitempty"`
	}
)

// Overview builds the enrollment's annotated outline. It does not write anything.
func (svc *Service) Overview(ctx context.Context, enrollmentID string) (Overview, error) {
	snap, err := svc.load(ctx, enrollmentID)
	if err != nil {
		return Overview{}, err
	}
	now := svc.clock.Now()

	completedAt := make(map[string]time.Time, len(snap.lessons))
	for _, lp := range snap.lessons {
		if lp.Completed {
			completedAt[lp.ContentItemID] = lp.CompletedAt
		}
	}
	completed := progress.CompletedSet(snap.lessons)
	available := make(map[string]bool)

	sections := make([]SectionView, 0, len(snap.outline))
	for _, sec := range snap.outline {
		sv := SectionView{Section: sec.Section, Items: make([]ItemView, 0, len(sec.Items))}
		for _, it := range sec.Items {
			ok, err := course.IsAvailable(snap.course, it, snap.enrollment, now)
			if err != nil {
				return Overview{}, errors.Wrapf(err, "checking availability of item %s", it.ID)
			}
			available[it.ID] = ok

			iv := ItemView{ContentItem: it, Available: ok, Completed: completed[it.ID]}
			if from := course.AvailableFrom(snap.course, it, snap.enrollment); !ok && !from.IsZero() {
				iv.AvailableFrom = &from
			}
			if at, done := completedAt[it.ID]; done {
				at := at
				iv.CompletedAt = &at
			}
			sv.Items = append(sv.Items, iv)
		}
		sections = append(sections, sv)
	}

	prog := snap.progress()
	ov := Overview{
		Result: Result{
			EnrollmentID: snap.enrollment.ID,
			State:        ComputeState(snap.course, prog, snap.quiz, snap.assignment, snap.cert),
			Progress:     prog,
			Certificate:  snap.cert,
		},
		Course:     snap.course,
		Enrollment: &snap.enrollment,
		Sections:   sections,
	}
	if snap.completion != nil {
		ov.CompletedAt = &snap.completion.CompletedAt
	}
	if target := progress.ResumeTarget(snap.outline.Items(), completed, available); target != nil {
		ov.ResumeItemID = target.ID
	}
	if next, ok := course.NextReleaseDate(snap.course, now); ok {
		ov.NextReleaseDate = &next
	}
	if snap.course.HasQuiz && snap.quiz.Recorded() {
		ov.Quiz = &snap.quiz
	}
	if snap.course.HasAssignment && snap.assignment.Recorded() {
		ov.Assignment = &snap.assignment
	}
	return ov, nil
}

// Preview shows the whole course to its owner (or an admin), every item available regardless of drip.
func (svc *Service) Preview(ctx context.Context, courseID string, viewer user.User) (Overview, error) {
	crs, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Overview{}, errors.Wrap(err, "getting course")
	}
	if crs.OwnerID != viewer.ID && !viewer.IsAdmin() {
		return Overview{}, ErrNotCourseOwner
	}
	outline, err := course.LoadOutline(ctx, svc.courses, crs.ID)
	if err != nil {
		return Overview{}, err
	}

	sections := make([]SectionView, 0, len(outline))
	for _, sec := range outline {
		sv := SectionView{Section: sec.Section, Items: make([]ItemView, 0, len(sec.Items))}
		for _, it := range sec.Items {
			sv.Items = append(sv.Items, ItemView{ContentItem: it, Available: true})
		}
		sections = append(sections, sv)
	}

	ov := Overview{
		Result: Result{
			State:    StateInProgress,
			Progress: progress.Compute(outline.Items(), nil),
		},
		Course:   crs,
		Sections: sections,
	}
	if items := outline.Items(); len(items) > 0 {
		ov.ResumeItemID = items[0].ID
	}
	if next, ok := course.NextReleaseDate(crs, svc.clock.Now()); ok {
		ov.NextReleaseDate = &next
	}
	return ov, nil
}
