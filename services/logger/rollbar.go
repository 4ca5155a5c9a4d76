package logsvc

import (
	"fmt"
	"io"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/user"
)

// RollbarLogger reports to Rollbar and echoes every entry to a std logger.
// Debug entries are dropped unless the app runs in debug mode.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

// NewDiscardLogger returns a disabled logger that writes nowhere, for tests.
func NewDiscardLogger() *RollbarLogger {
	l := &RollbarLogger{std: log.New(io.Discard, "", 0)}
	l.Enable(false)
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is a log call split into what Rollbar understands.
type entry struct {
	err    error
	extras map[string]interface{}
	usr    *user.User
	other  []interface{}
}

// newEntry sorts args: an error, extra data (maps and enrollments are merged), the requesting user.User.
func newEntry(args []interface{}) entry {
	var e entry
	addExtra := func(k string, v interface{}) {
		if e.extras == nil {
			e.extras = make(map[string]interface{})
		}
		e.extras[k] = v
	}

	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			if e.err == nil {
				e.err = a
			} else {
				e.other = append(e.other, a)
			}
		case map[string]interface{}:
			for k, v := range a {
				addExtra(k, v)
			}
		case course.Enrollment:
			addExtra("enrollment_id", a.ID)
			addExtra("course_id", a.CourseID)
			addExtra("learner_id", a.LearnerID)
		case user.User:
			if e.usr == nil { // only one person per item
				usr := a
				e.usr = &usr
			}
		default:
			e.other = append(e.other, a)
		}
	}
	return e
}

func (e entry) rollbarArgs(msg string) []interface{} {
	args := []interface{}{msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	extras := e.extras
	if len(e.other) > 0 {
		if extras == nil {
			extras = make(map[string]interface{})
		}
		extras["args"] = fmt.Sprint(e.other...)
	}
	if extras != nil {
		args = append(args, extras)
	}
	return args
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	e := newEntry(args)

	if e.usr != nil {
		rollbar.SetPerson(e.usr.ID, e.usr.Name, e.usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.rollbarArgs(msg)...)

	l.std.Println(msg)
	if e.err != nil {
		l.std.Printf("%+v\n", e.err)
	}
	if len(e.extras) > 0 {
		l.std.Printf("%v\n", e.extras)
	}
	for _, o := range e.other {
		l.std.Printf("%+v\n", o)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.log(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
