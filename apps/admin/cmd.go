package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"golang.org/x/term"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	stdin          io.Reader = os.Stdin

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	db      *sql.DB // nil with the memory engine
	usrSvc     *user.Service
	crsSvc     *course.Service
	progSvc    *progression.Service
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-roles ROLES] - create a user")
	fmt.Fprintln(cli.out, "  addmentor -mentor ID|EMAIL -learner ID|EMAIL [-course ID] - make a mentor follow a learner")
	fmt.Fprintln(cli.out, "  addcourse -title TITLE -owner ID|EMAIL [-certificate] [-quiz] [-assignment] [-drip none|week] [-release-day 0-6] - create a course")
	fmt.Fprintln(cli.out, "  addsection -course ID -title TITLE [-order N] - add a section to a course")
	fmt.Fprintln(cli.out, "  additem -section ID -title TITLE [-order N] [-delay DAYS] - add a content item to a section")
	fmt.Fprintln(cli.out, "  enroll -course ID -learner ID|EMAIL [-at YYYY-MM-DD] - enroll a learner")
	fmt.Fprintln(cli.out, "  reevaluate -enrollment ID|-course ID [-workers N] [-yes] - re-run enrollment evaluation")
}

// run executes the command. Validator errors come back translated.
func (cli *commandLine) run(args []string) error {
	err := cli.dispatch(args)
	if err != nil && cli.translator != nil {
		err = core.NewValidationErrorFrom(err, cli.translator)
	}
	return err
}

func (cli *commandLine) dispatch(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRoles := addUserCmd.String("roles", user.RoleLearner, "Comma separated roles, ie: instructor:,mentor:")

	addMentorCmd := flag.NewFlagSet("addmentor", flag.ContinueOnError)
	addMentorMentor := addMentorCmd.String("mentor", "", "The mentor's ID or email.")
	addMentorLearner := addMentorCmd.String("learner", "", "The learner's ID or email.")
	addMentorCourse := addMentorCmd.String("course", "", "The course ID. Leave empty to follow the learner on all courses.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ContinueOnError)
	var crsOpts courseOptions
	addCourseCmd.StringVar(&crsOpts.title, "title", "", "The course title.")
	addCourseCmd.StringVar(&crsOpts.owner, "owner", "", "The owning instructor's ID or email.")
	addCourseCmd.BoolVar(&crsOpts.certificate, "certificate", false, "Issue a certificate on completion.")
	addCourseCmd.BoolVar(&crsOpts.quiz, "quiz", false, "Require passing the final quiz.")
	addCourseCmd.BoolVar(&crsOpts.assignment, "assignment", false, "Require an approved assignment.")
	addCourseCmd.StringVar(&crsOpts.drip, "drip", course.ScheduleNone, "Drip schedule: none or week.")
	addCourseCmd.IntVar(&crsOpts.releaseDay, "release-day", int(time.Monday), "Weekly release day, 0 (Sunday) to 6 (Saturday).")

	addSectionCmd := flag.NewFlagSet("addsection", flag.ContinueOnError)
	addSectionCourse := addSectionCmd.String("course", "", "The course ID.")
	addSectionTitle := addSectionCmd.String("title", "", "The section title.")
	addSectionOrder := addSectionCmd.Int("order", 0, "Position of the section in the course.")

	addItemCmd := flag.NewFlagSet("additem", flag.ContinueOnError)
	addItemSection := addItemCmd.String("section", "", "The section ID.")
	addItemTitle := addItemCmd.String("title", "", "The item title.")
	addItemOrder := addItemCmd.Int("order", 0, "Position of the item in the section.")
	addItemDelay := addItemCmd.Int("delay", 0, "Days after enrollment before the item unlocks (drip courses only).")

	enrollCmd := flag.NewFlagSet("enroll", flag.ContinueOnError)
	enrollCourse := enrollCmd.String("course", "", "The course ID.")
	enrollLearner := enrollCmd.String("learner", "", "The learner's ID or email.")
	enrollAt := enrollCmd.String("at", "", "Enrollment date (YYYY-MM-DD). Defaults to now.")

	reevaluateCmd := flag.NewFlagSet("reevaluate", flag.ContinueOnError)
	reevaluateEnrollment := reevaluateCmd.String("enrollment", "", "Re-evaluate a single enrollment.")
	reevaluateCourse := reevaluateCmd.String("course", "", "Re-evaluate every enrollment of the course.")
	reevaluateWorkers := reevaluateCmd.Int("workers", progression.DefaultWorkers, "Number of enrollments evaluated concurrently.")
	reevaluateYes := reevaluateCmd.Bool("yes", false, "Do not ask for confirmation.")

	for _, fs := range []*flag.FlagSet{addUserCmd, addMentorCmd, addCourseCmd, addSectionCmd, addItemCmd, enrollCmd, reevaluateCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, splitRoles(*addUserRoles))

	case "addmentor":
		if err := addMentorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addMentorMentor == "" || *addMentorLearner == "" {
			addMentorCmd.Usage()
			return errHelp
		}
		return cli.addMentor(*addMentorMentor, *addMentorLearner, *addMentorCourse)

	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if crsOpts.title == "" || crsOpts.owner == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		return cli.addCourse(crsOpts)

	case "addsection":
		if err := addSectionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSectionCourse == "" {
			addSectionCmd.Usage()
			return errHelp
		}
		return cli.addSection(*addSectionCourse, *addSectionTitle, *addSectionOrder)

	case "additem":
		if err := addItemCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addItemSection == "" {
			addItemCmd.Usage()
			return errHelp
		}
		return cli.addItem(*addItemSection, *addItemTitle, *addItemOrder, *addItemDelay)

	case "enroll":
		if err := enrollCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *enrollCourse == "" || *enrollLearner == "" {
			enrollCmd.Usage()
			return errHelp
		}
		return cli.enroll(*enrollCourse, *enrollLearner, *enrollAt)

	case "reevaluate":
		if err := reevaluateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*reevaluateEnrollment == "") == (*reevaluateCourse == "") {
			reevaluateCmd.Usage()
			return errHelp
		}
		if !*reevaluateYes && !cli.confirm("Re-evaluate and issue pending certificates?") {
			return errAborted
		}
		return cli.reevaluate(*reevaluateEnrollment, *reevaluateCourse, *reevaluateWorkers)

	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks for a y/N answer. Without a terminal there is nobody to ask, so it proceeds.
func (cli *commandLine) confirm(question string) bool {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return true
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func splitRoles(s string) []string {
	roles := make([]string, 0)
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
