package sqlxrepos

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cheti/core/assessment"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
	"github.com/trezcool/cheti/tests"
)

var (
	ctx = context.Background()
	now = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
)

type seed struct {
	db      *sqlx.DB
	users   user.Repository
	courses course.Repository
	learner user.User
	course  course.Course
	items   []course.ContentItem
	enr     course.Enrollment
}

func newSeed(t *testing.T) seed {
	db := testDB(t)
	s := seed{db: db, users: NewUserRepository(db), courses: NewCourseRepository(db)}
	owner := testutil.CreateUser(t, s.users, "Owner", "owner@cheti.test", user.RoleInstructor)
	s.learner = testutil.CreateUser(t, s.users, "Ada", "ada@cheti.test", user.RoleLearner)
	s.course = testutil.CreateCourse(t, s.courses, course.Course{Title: "Go 101", OwnerID: owner.ID, CertificateEnabled: true})
	sec := testutil.CreateSection(t, s.courses, s.course.ID, "Basics", 1)
	s.items = testutil.CreateItems(t, s.courses, sec.ID, 3)
	s.enr = testutil.Enroll(t, s.courses, s.course.ID, s.learner.ID, now)
	return s
}

func TestUserRepository(t *testing.T) {
	s := newSeed(t)

	_, err := s.users.CreateUser(ctx, user.User{ID: "dup", Name: "Dup", Email: "ada@cheti.test", CreatedAt: now})
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))

	got, err := s.users.GetUserByEmail(ctx, "ada@cheti.test")
	require.NoError(t, err)
	assert.Equal(t, s.learner.ID, got.ID)
	assert.Equal(t, []string{user.RoleLearner}, got.Roles)

	_, err = s.users.GetUser(ctx, "nope")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	grace := testutil.CreateUser(t, s.users, "Grace", "grace@cheti.test", user.RoleMentor)
	alan := testutil.CreateUser(t, s.users, "Alan", "alan@cheti.test", user.RoleMentor)
	require.NoError(t, s.users.CreateMentorship(ctx, user.Mentorship{MentorID: grace.ID, LearnerID: s.learner.ID, CourseID: s.course.ID}))
	require.NoError(t, s.users.CreateMentorship(ctx, user.Mentorship{MentorID: grace.ID, LearnerID: s.learner.ID}))
	require.NoError(t, s.users.CreateMentorship(ctx, user.Mentorship{MentorID: alan.ID, LearnerID: s.learner.ID}))

	t.Run("duplicate mentorships are ignored", func(t *testing.T) {
		require.NoError(t, s.users.CreateMentorship(ctx, user.Mentorship{MentorID: alan.ID, LearnerID: s.learner.ID}))
		require.NoError(t, s.users.CreateMentorship(ctx, user.Mentorship{MentorID: grace.ID, LearnerID: s.learner.ID, CourseID: s.course.ID}))

		var n int
		require.NoError(t, s.db.Get(&n, `SELECT count(*) FROM mentorship WHERE learner_id = $1`, s.learner.ID))
		assert.Equal(t, 3, n)
	})

	mentors, err := s.users.QueryMentors(ctx, s.learner.ID, s.course.ID)
	require.NoError(t, err)
	require.Len(t, mentors, 2)
	assert.Equal(t, "Alan", mentors[0].Name)
	assert.Equal(t, "Grace", mentors[1].Name)
}

func TestCourseRepository(t *testing.T) {
	s := newSeed(t)

	got, err := s.courses.GetCourse(ctx, s.course.ID)
	require.NoError(t, err)
	assert.Equal(t, s.course, got)

	items, err := s.courses.QueryContentItems(ctx, s.course.ID)
	require.NoError(t, err)
	assert.Equal(t, s.items, items)

	_, err = s.courses.CreateEnrollment(ctx, course.Enrollment{ID: "again", CourseID: s.course.ID, LearnerID: s.learner.ID, EnrolledAt: now})
	assert.Equal(t, course.ErrAlreadyEnrolled, errors.Cause(err))

	_, err = s.courses.CreateSection(ctx, course.Section{ID: "orphan", CourseID: "nope", Title: "Orphan"})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	require.NoError(t, s.courses.UpdateProgressPercent(ctx, s.enr.ID, 42))
	enr, err := s.courses.GetEnrollment(ctx, s.enr.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, enr.ProgressPercent)
	assert.Equal(t, now, enr.EnrolledAt)

	err = s.courses.UpdateProgressPercent(ctx, "nope", 42)
	assert.Equal(t, course.ErrEnrollmentNotFound, errors.Cause(err))
}

func TestProgressRepository_MarkLessonComplete(t *testing.T) {
	s := newSeed(t)
	repo := NewProgressRepository(s.db)
	lp := progress.LessonProgress{EnrollmentID: s.enr.ID, ContentItemID: s.items[0].ID, Completed: true, CompletedAt: now}

	saved, created, err := repo.MarkLessonComplete(ctx, lp)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, lp, saved)

	later := lp
	later.CompletedAt = now.Add(time.Hour)
	saved, created, err = repo.MarkLessonComplete(ctx, later)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, now, saved.CompletedAt)

	lps, err := repo.QueryLessonProgress(ctx, s.enr.ID)
	require.NoError(t, err)
	assert.Len(t, lps, 1)
}

func TestAssessmentRepository(t *testing.T) {
	s := newSeed(t)
	repo := NewAssessmentRepository(s.db)

	t.Run("quiz", func(t *testing.T) {
		o, err := repo.GetQuizOutcome(ctx, s.enr.ID)
		require.NoError(t, err)
		assert.False(t, o.Recorded())

		steps := []struct {
			passed      bool
			wantPassed  bool
			wantChanged bool
		}{
			{passed: false, wantPassed: false, wantChanged: true},
			{passed: false, wantPassed: false, wantChanged: false},
			{passed: true, wantPassed: true, wantChanged: true},
			{passed: false, wantPassed: true, wantChanged: false},
		}
		for i, step := range steps {
			o, changed, err := repo.SaveQuizOutcome(ctx, assessment.QuizOutcome{EnrollmentID: s.enr.ID, Passed: step.passed, UpdatedAt: now})
			require.NoError(t, err, "step %d", i)
			assert.Equal(t, step.wantPassed, o.Passed, "step %d", i)
			assert.Equal(t, step.wantChanged, changed, "step %d", i)
		}
	})

	t.Run("assignment", func(t *testing.T) {
		steps := []struct {
			status      string
			wantStatus  string
			wantChanged bool
		}{
			{status: assessment.StatusPending, wantStatus: assessment.StatusPending, wantChanged: true},
			{status: assessment.StatusPending, wantStatus: assessment.StatusPending, wantChanged: false},
			{status: assessment.StatusRejected, wantStatus: assessment.StatusRejected, wantChanged: true},
			{status: assessment.StatusApproved, wantStatus: assessment.StatusApproved, wantChanged: true},
			{status: assessment.StatusRejected, wantStatus: assessment.StatusApproved, wantChanged: false},
		}
		for i, step := range steps {
			o, changed, err := repo.SaveAssignmentOutcome(ctx, assessment.AssignmentOutcome{
				EnrollmentID: s.enr.ID,
				Status:       step.status,
				UpdatedAt:    now,
			})
			require.NoError(t, err, "step %d", i)
			assert.Equal(t, step.wantStatus, o.Status, "step %d", i)
			assert.Equal(t, step.wantChanged, changed, "step %d", i)
		}
	})
}

func TestCertificateRepository_CreateCertificate(t *testing.T) {
	s := newSeed(t)
	repo := NewCertificateRepository(s.db)

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.CreateCertificate(ctx, certificate.Certificate{
				EnrollmentID: s.enr.ID,
				CourseID:     s.course.ID,
				LearnerID:    s.learner.ID,
				Number:       fmt.Sprintf("CHT-%04d", i),
				IssuedAt:     now,
			})
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		switch errors.Cause(err) {
		case nil:
			created++
		case certificate.ErrExists:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)

	cert, err := repo.GetCertificate(ctx, s.enr.ID)
	require.NoError(t, err)
	byNumber, err := repo.GetCertificateByNumber(ctx, cert.Number)
	require.NoError(t, err)
	assert.Equal(t, cert, byNumber)

	other := testutil.Enroll(t, s.courses, s.course.ID, testutil.CreateUser(t, s.users, "Bob", "bob@cheti.test").ID, now)
	_, err = repo.CreateCertificate(ctx, certificate.Certificate{
		EnrollmentID: other.ID,
		CourseID:     s.course.ID,
		LearnerID:    other.LearnerID,
		Number:       cert.Number,
		IssuedAt:     now,
	})
	assert.Equal(t, certificate.ErrNumberTaken, errors.Cause(err))
}

func TestCompletionRepository_RecordCompletion(t *testing.T) {
	s := newSeed(t)
	repo := NewCompletionRepository(s.db)

	_, err := repo.GetCompletion(ctx, s.enr.ID)
	assert.Equal(t, progression.ErrCompletionNotFound, errors.Cause(err))

	c := progression.Completion{EnrollmentID: s.enr.ID, CourseID: s.course.ID, LearnerID: s.learner.ID, CompletedAt: now}
	saved, created, err := repo.RecordCompletion(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, c, saved)

	later := c
	later.CompletedAt = now.Add(time.Hour)
	saved, created, err = repo.RecordCompletion(ctx, later)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, now, saved.CompletedAt)
}
