package progression

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/user"
)

type (
	certificateIssuedData struct {
		LearnerName string
		CourseTitle string
		Number      string
		IssuedAt    time.Time
	}

	courseCompletedData struct {
		MentorName  string
		LearnerName string
		CourseTitle string
		CompletedAt time.Time
	}
)

// Notifier emails learners about their certificates and mentors about completions.
type Notifier struct {
	users   user.Repository
	mailSvc core.EmailService
}

var _ certificate.Notifier = (*Notifier)(nil)

func NewNotifier(users user.Repository, mailSvc core.EmailService) *Notifier {
	return &Notifier{users: users, mailSvc: mailSvc}
}

func (n *Notifier) CertificateIssued(ctx context.Context, cert certificate.Certificate, crs course.Course) error {
	learner, err := n.users.GetUser(ctx, cert.LearnerID)
	if err != nil {
		return errors.Wrap(err, "getting learner")
	}
	if learner.Email == "" {
		return nil
	}

	n.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: learner.Name, Address: learner.Email}},
		Subject:      "Your certificate for " + crs.Title,
		TemplateName: "certificate_issued",
		TemplateData: certificateIssuedData{
			LearnerName: learner.Name,
			CourseTitle: crs.Title,
			Number:      cert.Number,
			IssuedAt:    cert.IssuedAt,
		},
	})
	return nil
}

// CourseCompleted emails the learner's mentors.
func (n *Notifier) CourseCompleted(ctx context.Context, c Completion, crs course.Course) error {
	learner, err := n.users.GetUser(ctx, c.LearnerID)
	if err != nil {
		return errors.Wrap(err, "getting learner")
	}
	mentors, err := n.users.QueryMentors(ctx, c.LearnerID, c.CourseID)
	if err != nil {
		return errors.Wrap(err, "querying mentors")
	}

	msgs := make([]*core.EmailMessage, 0, len(mentors))
	for _, mentor := range mentors {
		if mentor.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: mentor.Name, Address: mentor.Email}},
			Subject:      learner.Name + " completed " + crs.Title,
			TemplateName: "course_completed",
			TemplateData: courseCompletedData{
				MentorName:  mentor.Name,
				LearnerName: learner.Name,
				CourseTitle: crs.Title,
				CompletedAt: c.CompletedAt,
			},
		})
	}
	if len(msgs) > 0 {
		n.mailSvc.SendMessages(msgs...)
	}
	return nil
}
