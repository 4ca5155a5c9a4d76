package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
)

var errEnrollmentNotInCtx = errors.New("enrollment not found in echo.Context")

type progressionApi struct {
	svc      *progression.Service
	users    *user.Service
	courses  *course.Service
	validate *validator.Validate
}

func registerProgressionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := progressionApi{
		svc:      deps.ProgressionSvc,
		users:    deps.UserSvc,
		courses:  deps.CourseSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	g.GET("/certificates/:number", api.verifyCertificate)

	// enrollment endpoints
	eg := g.Group("/enrollments/:id", jwt, enrollmentMiddleware(api.users, api.courses))
	eg.GET("", api.overview)
	eg.POST("/evaluate", api.evaluate)
	eg.POST("/items/:itemID/complete", api.completeItem, learnerMiddleware)
	eg.PUT("/quiz", api.recordQuiz, courseOwnerMiddleware)
	eg.PUT("/assignment", api.recordAssignment, courseOwnerMiddleware)
	eg.GET("/certificate", api.certificate)

	// course endpoints
	cg := g.Group("/courses/:id", jwt)
	cg.GET("/preview", api.preview)
	cg.POST("/evaluate", api.evaluateCourse, adminMiddleware)
}

func contextEnrollment(ctx echo.Context) (course.Enrollment, error) {
	enr, ok := ctx.Get(contextEnrollmentKey).(course.Enrollment)
	if !ok {
		return course.Enrollment{}, errors.Wrap(errEnrollmentNotInCtx, "retrieving enrollment from context")
	}
	return enr, nil
}

// Handlers

func (api *progressionApi) overview(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.Overview(ctx.Request().Context(), enr.ID)
	if err != nil {
		return errors.Wrap(err, "building overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *progressionApi) evaluate(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Evaluate(ctx.Request().Context(), enr.ID)
	if err != nil {
		return errors.Wrap(err, "evaluating enrollment")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) completeItem(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.MarkLessonComplete(ctx.Request().Context(), enr.ID, ctx.Param("itemID"))
	if err != nil {
		return errors.Wrap(err, "marking lesson complete")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) recordQuiz(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}
	var data QuizOutcomeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizOutcomeRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.RecordQuizOutcome(ctx.Request().Context(), enr.ID, *data.Passed)
	if err != nil {
		return errors.Wrap(err, "recording quiz outcome")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) recordAssignment(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}
	var data AssignmentOutcomeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignmentOutcomeRequest")
	}
	data.Status = core.CleanString(data.Status, true /* lower */)
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	reviewer, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.svc.RecordAssignmentOutcome(ctx.Request().Context(), enr.ID, data.Status, reviewer.ID)
	if err != nil {
		return errors.Wrap(err, "recording assignment outcome")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressionApi) certificate(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}
	cert, err := api.svc.Certificate(ctx.Request().Context(), enr.ID)
	if err != nil {
		return errors.Wrap(err, "getting certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (api *progressionApi) verifyCertificate(ctx echo.Context) error {
	v, err := api.svc.VerifyCertificate(ctx.Request().Context(), ctx.Param("number"))
	if err != nil {
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *progressionApi) preview(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ov, err := api.svc.Preview(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "previewing course")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *progressionApi) evaluateCourse(ctx echo.Context) error {
	var data EvaluateCourseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EvaluateCourseRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	report, err := api.svc.EvaluateCourse(ctx.Request().Context(), ctx.Param("id"), data.Workers)
	if err != nil {
		return errors.Wrap(err, "evaluating course")
	}
	return ctx.JSON(http.StatusOK, report)
}

type (
	QuizOutcomeRequest struct {
		Passed *bool `json:"passed" validate:"required"`
	}

	AssignmentOutcomeRequest struct {
		Status string `json:"status" validate:"required,oneof=pending approved rejected"`
	}

	EvaluateCourseRequest struct {
		Workers int `json:"workers" query:"workers" validate:"min=0,max=32"`
	}
)
