package progression_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
	emailsvc "github.com/trezcool/cheti/services/email"
	logsvc "github.com/trezcool/cheti/services/logger"
	dummydb "github.com/trezcool/cheti/storage/database/dummy"
	"github.com/trezcool/cheti/tests"
)

var (
	monday       = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	errTransient = errors.New("connection reset by peer")
)

type fixture struct {
	ctx     context.Context
	courses course.Repository
	users   user.Repository
	certs   certificate.Repository
	clock   *testutil.Clock
	mail    *emailsvc.ConsoleServiceMock
	numbers *certificate.NumberGenerator
	svc     *progression.Service
	owner   user.User
	learner user.User
}

func setup(t *testing.T, override ...func(*progression.Deps)) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()
	core.ParseEmailTemplates(conf, logger)

	f := &fixture{
		ctx:     context.Background(),
		courses: dummydb.NewCourseRepository(db),
		users:   dummydb.NewUserRepository(db),
		certs:   dummydb.NewCertificateRepository(db),
		clock:   testutil.NewClock(monday),
		mail:    emailsvc.NewConsoleServiceMock(conf, logger),
		numbers: certificate.NewNumberGenerator(conf.CertificatePrefix, conf.SecretKey),
	}
	deps := progression.Deps{
		Courses:      f.courses,
		Progress:     dummydb.NewProgressRepository(db),
		Assessments:  dummydb.NewAssessmentRepository(db),
		Certificates: f.certs,
		Completions:  dummydb.NewCompletionRepository(db),
		Users:        f.users,
		MailSvc:      f.mail,
		Numbers:      f.numbers,
		Clock:        f.clock,
		Logger:       logger,
	}
	for _, o := range override {
		o(&deps)
	}
	f.svc = progression.NewService(deps)

	f.owner = testutil.CreateUser(t, f.users, "Owner", "owner@cheti.test", user.RoleInstructor)
	f.learner = testutil.CreateUser(t, f.users, "Ada", "ada@cheti.test", user.RoleLearner)
	return f
}

// newCourse creates a course with a single section of n lessons, and enrolls the learner.
func (f *fixture) newCourse(t *testing.T, crs course.Course, n int) (course.Course, []course.ContentItem, course.Enrollment) {
	t.Helper()
	crs.OwnerID = f.owner.ID
	if crs.Title == "" {
		crs.Title = "Go 101"
	}
	crs = testutil.CreateCourse(t, f.courses, crs)
	sec := testutil.CreateSection(t, f.courses, crs.ID, "Basics", 1)
	items := testutil.CreateItems(t, f.courses, sec.ID, n)
	enr := testutil.Enroll(t, f.courses, crs.ID, f.learner.ID, f.clock.Now())
	return crs, items, enr
}

func (f *fixture) completeAll(t *testing.T, enr course.Enrollment, items []course.ContentItem) progression.Result {
	t.Helper()
	var res progression.Result
	var err error
	for _, it := range items {
		res, err = f.svc.MarkLessonComplete(f.ctx, enr.ID, it.ID)
		if err != nil {
			t.Fatalf("MarkLessonComplete(%s) failed: %v", it.ID, err)
		}
	}
	return res
}

func (f *fixture) sentCount(template string) int {
	f.svc.Wait()
	var n int
	for _, msg := range f.mail.SentMessages() {
		if msg.TemplateName == template {
			n++
		}
	}
	return n
}

type flakyProgressRepo struct {
	progress.Repository
	failures int32
}

func (r *flakyProgressRepo) MarkLessonComplete(ctx context.Context, lp progress.LessonProgress) (progress.LessonProgress, bool, error) {
	if atomic.AddInt32(&r.failures, -1) >= 0 {
		return progress.LessonProgress{}, false, errTransient
	}
	return r.Repository.MarkLessonComplete(ctx, lp)
}

type flakyCertificateRepo struct {
	certificate.Repository
	failures int32
}

func (r *flakyCertificateRepo) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	if atomic.AddInt32(&r.failures, -1) >= 0 {
		return certificate.Certificate{}, errTransient
	}
	return r.Repository.CreateCertificate(ctx, cert)
}
