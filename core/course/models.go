package course

import (
	"sort"
	"time"
)

// Drip schedule types
const (
	ScheduleNone = "none"
	ScheduleWeek = "week"
)

// DripPolicy controls when a course's content items unlock.
type DripPolicy struct {
	Enabled          bool         `json:"enabled"`
	ScheduleType     string       `json:"schedule_type"`
	ReleaseDayOfWeek time.Weekday `json:"release_day_of_week"` // Sunday = 0
}

type Course struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	OwnerID            string     `json:"owner_id"`
	Drip               DripPolicy `json:"drip"`
	CertificateEnabled bool       `json:"certificate_enabled"`
	HasQuiz            bool       `json:"has_quiz"`
	HasAssignment      bool       `json:"has_assignment"`
}

type Section struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

type ContentItem struct {
	ID            string `json:"id"`
	SectionID     string `json:"section_id"`
	Title         string `json:"title"`
	Order         int    `json:"order"`
	DripDelayDays int    `json:"drip_delay_days"`
}

type Enrollment struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	LearnerID       string    `json:"learner_id"`
	EnrolledAt      time.Time `json:"enrolled_at"` // UTC
	ProgressPercent int       `json:"progress_percent"`
}

// OutlineSection is a Section along with its content items.
type OutlineSection struct {
	Section
	Items []ContentItem `json:"items"`
}

// Outline is a course's content tree, sorted by section then item order.
type Outline []OutlineSection

// NewOutline builds a sorted Outline. Items of unknown sections are dropped.
func NewOutline(sections []Section, items []ContentItem) Outline {
	bySection := make(map[string][]ContentItem, len(sections))
	for _, it := range items {
		bySection[it.SectionID] = append(bySection[it.SectionID], it)
	}

	outline := make(Outline, 0, len(sections))
	for _, sec := range sections {
		secItems := bySection[sec.ID]
		sort.SliceStable(secItems, func(i, j int) bool {
			if secItems[i].Order != secItems[j].Order {
				return secItems[i].Order < secItems[j].Order
			}
			return secItems[i].ID < secItems[j].ID
		})
		if secItems == nil {
			secItems = []ContentItem{}
		}
		outline = append(outline, OutlineSection{Section: sec, Items: secItems})
	}
	sort.SliceStable(outline, func(i, j int) bool {
		if outline[i].Order != outline[j].Order {
			return outline[i].Order < outline[j].Order
		}
		return outline[i].ID < outline[j].ID
	})
	return outline
}

// Items returns every content item, in outline order.
func (o Outline) Items() []ContentItem {
	var n int
	for _, sec := range o {
		n += len(sec.Items)
	}
	items := make([]ContentItem, 0, n)
	for _, sec := range o {
		items = append(items, sec.Items...)
	}
	return items
}

// Item finds a content item by ID.
func (o Outline) Item(id string) (ContentItem, bool) {
	for _, sec := range o {
		for _, it := range sec.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return ContentItem{}, false
}
