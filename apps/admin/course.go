package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
)

const dateLayout = "2006-01-02"

type courseOptions struct {
	title       string
	owner       string // ID or email
	certificate bool
	quiz        bool
	assignment  bool
	drip        string
	releaseDay  int
}

func (cli *commandLine) addCourse(opts courseOptions) error {
	ctx := context.Background()
	owner, err := cli.lookupUser(ctx, opts.owner)
	if err != nil {
		return errors.Wrap(err, "getting owner")
	}
	if !owner.IsInstructor() && !owner.IsAdmin() {
		return core.NewValidationError(nil, core.FieldError{Field: "owner", Error: "user is not an instructor"})
	}

	crs, err := cli.crsSvc.Create(ctx, course.NewCourse{
		Title:   opts.title,
		OwnerID: owner.ID,
		Drip: course.DripPolicy{
			Enabled:          opts.drip != "" && opts.drip != course.ScheduleNone,
			ScheduleType:     opts.drip,
			ReleaseDayOfWeek: time.Weekday(opts.releaseDay),
		},
		CertificateEnabled: opts.certificate,
		HasQuiz:            opts.quiz,
		HasAssignment:      opts.assignment,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "course created: %s id=%s\n", crs.Title, crs.ID)
	return nil
}

func (cli *commandLine) addSection(courseID, title string, order int) error {
	sec, err := cli.crsSvc.AddSection(context.Background(), course.NewSection{
		CourseID: courseID,
		Title:    title,
		Order:    order,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "section created: %s id=%s\n", sec.Title, sec.ID)
	return nil
}

func (cli *commandLine) addItem(sectionID, title string, order, delayDays int) error {
	item, err := cli.crsSvc.AddContentItem(context.Background(), course.NewContentItem{
		SectionID:     sectionID,
		Title:         title,
		Order:         order,
		DripDelayDays: delayDays,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "item created: %s id=%s\n", item.Title, item.ID)
	return nil
}

// enroll enrolls the learner now, or on the given date (YYYY-MM-DD) when importing enrollments.
func (cli *commandLine) enroll(courseID, learnerRef, date string) error {
	ctx := context.Background()
	learner, err := cli.lookupUser(ctx, learnerRef)
	if err != nil {
		return errors.Wrap(err, "getting learner")
	}

	var enr course.Enrollment
	if date == "" {
		enr, err = cli.crsSvc.Enroll(ctx, courseID, learner.ID)
	} else {
		at, pErr := time.Parse(dateLayout, date)
		if pErr != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "at", Error: "date must be of form YYYY-MM-DD"})
		}
		enr, err = cli.crsSvc.EnrollAt(ctx, courseID, learner.ID, at)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "learner enrolled: %s on %s id=%s\n", learner.Name, enr.EnrolledAt.Format(dateLayout), enr.ID)
	return nil
}
