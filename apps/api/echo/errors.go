package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// errorResponse maps err to a status code and a body. Unknown errors are server errors.
func errorResponse(err error, translator ut.Translator) (code int, message interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
			origErr = herr
		}
		return origErr.Code, origErr.Message

	case validator.ValidationErrors:
		flds := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			flds[vErr.Field()] = vErr.Translate(translator)
		}
		return http.StatusBadRequest, flds

	case *core.ValidationError:
		if len(origErr.Fields) == 0 {
			return http.StatusBadRequest, origErr.Error()
		}
		flds := make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			flds[fErr.Field] = fErr.Error
		}
		return http.StatusBadRequest, flds
	}

	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound, errors.Cause(err).Error()
	case core.IsForbidden(err):
		return http.StatusForbidden, errors.Cause(err).Error()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := errorResponse(err, translator)

		if code == http.StatusInternalServerError {
			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Name = claims.Name
				usr.Email = claims.Email
			}
			msg := ctx.Request().Method + " " + ctx.Path()
			logger.Error(msg, errors.Wrap(err, msg), usr)

			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
