package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/cheti/apps/api/echo"
	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/assessment"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
	emailsvc "github.com/trezcool/cheti/services/email"
	logsvc "github.com/trezcool/cheti/services/logger"
	"github.com/trezcool/cheti/storage/database"
	dummydb "github.com/trezcool/cheti/storage/database/dummy"
	sqlxrepos "github.com/trezcool/cheti/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBCloser releases the database, if any.
	DBCloser func() error

	// Repositories are backed either by postgres or by the in-memory store, see core.DatabaseConfig.Engine
	Repositories struct {
		dig.Out
		Users        user.Repository
		Courses      course.Repository
		Progress     progress.Repository
		Assessments  assessment.Repository
		Certificates certificate.Repository
		Completions  progression.Repository
		Close        DBCloser
	}

	progressionParams struct {
		dig.In
		Conf         *core.Config
		Logger       core.Logger
		Courses      course.Repository
		Progress     progress.Repository
		Assessments  assessment.Repository
		Certificates certificate.Repository
		Completions  progression.Repository
		Users        user.Repository
		MailSvc      core.EmailService
		Clock        core.Clock
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.IsMemory() {
		db, err := dummydb.Open()
		if err != nil {
			loggerParam.Logger.Fatal(fmt.Sprintf("opening in-memory database: %v", err), err)
		}
		return Repositories{
			Users:        dummydb.NewUserRepository(db),
			Courses:      dummydb.NewCourseRepository(db),
			Progress:     dummydb.NewProgressRepository(db),
			Assessments:  dummydb.NewAssessmentRepository(db),
			Certificates: dummydb.NewCertificateRepository(db),
			Completions:  dummydb.NewCompletionRepository(db),
			Close:        func() error { return nil },
		}
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return Repositories{
		Users:        sqlxrepos.NewUserRepository(db),
		Courses:      sqlxrepos.NewCourseRepository(db),
		Progress:     sqlxrepos.NewProgressRepository(db),
		Assessments:  sqlxrepos.NewAssessmentRepository(db),
		Certificates: sqlxrepos.NewCertificateRepository(db),
		Completions:  sqlxrepos.NewCompletionRepository(db),
		Close:        db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}

func newClock() core.Clock {
	return core.SystemClock
}

func newProgressionService(p progressionParams) *progression.Service {
	return progression.NewService(progression.Deps{
		Courses:      p.Courses,
		Progress:     p.Progress,
		Assessments:  p.Assessments,
		Certificates: p.Certificates,
		Completions:  p.Completions,
		Users:        p.Users,
		MailSvc:      p.MailSvc,
		Numbers:      certificate.NewNumberGenerator(p.Conf.CertificatePrefix, p.Conf.SecretKey),
		Clock:        p.Clock,
		Logger:       p.Logger,
	})
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	usrSvc *user.Service,
	crsSvc *course.Service,
	progSvc *progression.Service,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		ProgressionSvc: progSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(newClock))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(newProgressionService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
