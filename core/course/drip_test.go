package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, time.January, 1, 18, 30, 0, 0, time.UTC) // Monday evening

func weeklyCourse() Course {
	return Course{
		ID:    "course",
		Title: "Weekly",
		Drip:  DripPolicy{Enabled: true, ScheduleType: ScheduleWeek, ReleaseDayOfWeek: time.Wednesday},
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{name: "same instant", from: monday, to: monday, want: 0},
		{name: "same day, earlier time", from: monday, to: monday.Add(-18 * time.Hour), want: 0},
		{name: "next day, earlier wall clock", from: monday, to: time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC), want: 1},
		{name: "three days", from: monday, to: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), want: 3},
		{name: "across a month", from: monday, to: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), want: 31},
		{name: "before enrollment", from: monday, to: monday.AddDate(0, 0, -2), want: -2},
		{
			name: "non UTC zone",
			from: monday,
			to:   time.Date(2024, 1, 2, 23, 0, 0, 0, time.FixedZone("WAT", 2*60*60)), // 21:00 UTC
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestIsAvailable(t *testing.T) {
	enr := Enrollment{ID: "enr", CourseID: "course", LearnerID: "learner", EnrolledAt: monday}
	weekly := weeklyCourse()
	disabled := weeklyCourse()
	disabled.Drip.Enabled = false
	noneSchedule := weeklyCourse()
	noneSchedule.Drip.ScheduleType = ScheduleNone

	delay3 := ContentItem{ID: "item", DripDelayDays: 3}

	tests := []struct {
		name    string
		crs     Course
		item    ContentItem
		enr     Enrollment
		now     time.Time
		want    bool
		wantErr error
	}{
		{name: "drip disabled", crs: disabled, item: delay3, enr: enr, now: monday, want: true},
		{name: "schedule none", crs: noneSchedule, item: delay3, enr: enr, now: monday, want: true},
		{name: "no delay", crs: weekly, item: ContentItem{ID: "intro"}, enr: enr, now: monday, want: true},
		{name: "Tuesday", crs: weekly, item: delay3, enr: enr, now: time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC), want: false},
		{name: "Wednesday", crs: weekly, item: delay3, enr: enr, now: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), want: false},
		{name: "Thursday, early morning", crs: weekly, item: delay3, enr: enr, now: time.Date(2024, 1, 4, 0, 0, 1, 0, time.UTC), want: true},
		{name: "next month", crs: weekly, item: delay3, enr: enr, now: monday.AddDate(0, 1, 0), want: true},
		{name: "negative delay", crs: weekly, item: ContentItem{ID: "bad", DripDelayDays: -1}, enr: enr, now: monday, wantErr: ErrNegativeDelay},
		{name: "missing enrollment date", crs: weekly, item: delay3, enr: Enrollment{ID: "enr"}, now: monday, wantErr: ErrMissingEnrollmentDate},
		{
			name: "unknown schedule type", item: delay3, enr: enr, now: monday, wantErr: ErrInvalidScheduleType,
			crs: Course{Drip: DripPolicy{Enabled: true, ScheduleType: "monthly"}},
		},
		{
			name: "release day out of range", item: delay3, enr: enr, now: monday, wantErr: ErrInvalidReleaseDay,
			crs: Course{Drip: DripPolicy{Enabled: true, ScheduleType: ScheduleWeek, ReleaseDayOfWeek: 7}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsAvailable(tt.crs, tt.item, tt.enr, tt.now)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAvailable_monotonic(t *testing.T) {
	enr := Enrollment{ID: "enr", EnrolledAt: monday}
	crs := weeklyCourse()

	for delay := 0; delay <= 30; delay += 3 {
		item := ContentItem{ID: "item", DripDelayDays: delay}
		unlocked := false
		for now := monday.AddDate(0, 0, -2); now.Before(monday.AddDate(0, 0, 40)); now = now.Add(5 * time.Hour) {
			got, err := IsAvailable(crs, item, enr, now)
			require.NoError(t, err)
			if unlocked && !got {
				t.Fatalf("delay %d: item locked again at %v", delay, now)
			}
			unlocked = got
		}
		assert.True(t, unlocked, "delay %d never unlocked", delay)
	}
}

func TestAvailableFrom(t *testing.T) {
	enr := Enrollment{ID: "enr", EnrolledAt: monday}

	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), AvailableFrom(weeklyCourse(), ContentItem{DripDelayDays: 3}, enr))
	assert.True(t, AvailableFrom(weeklyCourse(), ContentItem{}, enr).IsZero())

	disabled := weeklyCourse()
	disabled.Drip.Enabled = false
	assert.True(t, AvailableFrom(disabled, ContentItem{DripDelayDays: 3}, enr).IsZero())
}

func TestNextReleaseDate(t *testing.T) {
	wednesday := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	nextWednesday := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		crs    Course
		now    time.Time
		want   time.Time
		wantOk bool
	}{
		{name: "from Monday", crs: weeklyCourse(), now: monday, want: wednesday, wantOk: true},
		{name: "on release day", crs: weeklyCourse(), now: wednesday.Add(10 * time.Hour), want: nextWednesday, wantOk: true},
		{name: "day after release", crs: weeklyCourse(), now: wednesday.AddDate(0, 0, 1), want: nextWednesday, wantOk: true},
		{name: "drip disabled", crs: Course{Drip: DripPolicy{ScheduleType: ScheduleWeek}}, now: monday},
		{name: "schedule none", crs: Course{Drip: DripPolicy{Enabled: true, ScheduleType: ScheduleNone}}, now: monday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextReleaseDate(tt.crs, tt.now)
			assert.Equal(t, tt.wantOk, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}
