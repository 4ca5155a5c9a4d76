package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
	emailsvc "github.com/trezcool/cheti/services/email"
	logsvc "github.com/trezcool/cheti/services/logger"
	"github.com/trezcool/cheti/storage/database"
	dummydb "github.com/trezcool/cheti/storage/database/dummy"
	sqlxrepos "github.com/trezcool/cheti/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rollbarLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rollbarLogger.Enable(!conf.Debug)
	logger = rollbarLogger

	core.ParseEmailTemplates(conf, logger)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// set up DB & repos
	deps := progression.Deps{
		MailSvc: mailSvc,
		Numbers: certificate.NewNumberGenerator(conf.CertificatePrefix, conf.SecretKey),
		Clock:   core.SystemClock,
		Logger:  logger,
	}
	var db *sql.DB
	if conf.Database.IsMemory() {
		mem, err := dummydb.Open()
		errAndDie(err)
		deps.Users = dummydb.NewUserRepository(mem)
		deps.Courses = dummydb.NewCourseRepository(mem)
		deps.Progress = dummydb.NewProgressRepository(mem)
		deps.Assessments = dummydb.NewAssessmentRepository(mem)
		deps.Certificates = dummydb.NewCertificateRepository(mem)
		deps.Completions = dummydb.NewCompletionRepository(mem)
	} else {
		xdb, err := database.Open(conf)
		errAndDie(err)
		defer xdb.Close()
		db = xdb.DB
		deps.Users = sqlxrepos.NewUserRepository(xdb)
		deps.Courses = sqlxrepos.NewCourseRepository(xdb)
		deps.Progress = sqlxrepos.NewProgressRepository(xdb)
		deps.Assessments = sqlxrepos.NewAssessmentRepository(xdb)
		deps.Certificates = sqlxrepos.NewCertificateRepository(xdb)
		deps.Completions = sqlxrepos.NewCompletionRepository(xdb)
	}

	// start CLI
	cli := commandLine{
		db:         db,
		usrSvc:     user.NewService(deps.Users, validate, core.SystemClock),
		crsSvc:     course.NewService(deps.Courses, validate, core.SystemClock),
		progSvc:    progression.NewService(deps),
		translator: translator,
		out:        os.Stdout,
	}
	err := cli.run(os.Args)
	cli.progSvc.Wait()
	if err != nil {
		if err != errHelp {
			logger.Error("admin: "+err.Error(), err)
		}
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
