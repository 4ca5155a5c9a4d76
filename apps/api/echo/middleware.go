package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/user"
)

const (
	contextEnrollmentKey = "enrollment"
	contextCourseKey     = "course"
)

// enrollmentMiddleware loads the `:id` enrollment and its course into the context.
// Only the enrolled learner, the course owner and admins can see an enrollment: anyone else gets a 404.
func enrollmentMiddleware(users *user.Service, courses *course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, users)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			reqCtx := ctx.Request().Context()
			enr, err := courses.GetEnrollment(reqCtx, ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "getting enrollment")
			}
			crs, err := courses.Get(reqCtx, enr.CourseID)
			if err != nil {
				return errors.Wrap(err, "getting course")
			}

			if enr.LearnerID != ctxUsr.ID && crs.OwnerID != ctxUsr.ID && !ctxUsr.IsAdmin() {
				return errHttpNotFound
			}
			ctx.Set(contextEnrollmentKey, enr)
			ctx.Set(contextCourseKey, crs)
			return next(ctx)
		}
	}
}

// learnerMiddleware lets the enrolled learner through. Must run after enrollmentMiddleware.
func learnerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, _ := ctx.Get(contextUserKey).(user.User)
		enr, _ := ctx.Get(contextEnrollmentKey).(course.Enrollment)
		if usr.ID == "" || usr.ID != enr.LearnerID {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

// courseOwnerMiddleware lets the course owner and admins through. Must run after enrollmentMiddleware.
func courseOwnerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, _ := ctx.Get(contextUserKey).(user.User)
		crs, _ := ctx.Get(contextCourseKey).(course.Course)
		if usr.ID == "" || (usr.ID != crs.OwnerID && !usr.IsAdmin()) {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !claims.IsAdmin {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
