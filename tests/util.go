package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/user"
)

// Clock is a core.Clock frozen at a settable time.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

var _ core.Clock = (*Clock)(nil)

func NewClock(now time.Time) *Clock {
	return &Clock{now: now.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now.UTC()
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// NewValidator returns a validator with the app's custom validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, email string, roles ...string) user.User {
	t.Helper()
	usr, err := repo.CreateUser(context.Background(), user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		IsActive:  true,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse saves crs, with a generated ID if it has none.
func CreateCourse(t *testing.T, repo course.Repository, crs course.Course) course.Course {
	t.Helper()
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	if crs.Drip.ScheduleType == "" {
		crs.Drip.ScheduleType = course.ScheduleNone
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateSection(t *testing.T, repo course.Repository, courseID, title string, order int) course.Section {
	t.Helper()
	sec, err := repo.CreateSection(context.Background(), course.Section{
		ID:       uuid.New().String(),
		CourseID: courseID,
		Title:    title,
		Order:    order,
	})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	return sec
}

func CreateItem(t *testing.T, repo course.Repository, sectionID, title string, order, delayDays int) course.ContentItem {
	t.Helper()
	item, err := repo.CreateContentItem(context.Background(), course.ContentItem{
		ID:            uuid.New().String(),
		SectionID:     sectionID,
		Title:         title,
		Order:         order,
		DripDelayDays: delayDays,
	})
	if err != nil {
		t.Fatalf("CreateItem() failed: %v", err)
	}
	return item
}

// CreateItems adds n items without drip delay to the section.
func CreateItems(t *testing.T, repo course.Repository, sectionID string, n int) []course.ContentItem {
	t.Helper()
	items := make([]course.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, CreateItem(t, repo, sectionID, "Lesson", i, 0))
	}
	return items
}

func Enroll(t *testing.T, repo course.Repository, courseID, learnerID string, at time.Time) course.Enrollment {
	t.Helper()
	enr, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		ID:         uuid.New().String(),
		CourseID:   courseID,
		LearnerID:  learnerID,
		EnrolledAt: at.UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}
