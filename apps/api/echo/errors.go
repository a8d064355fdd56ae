package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
)

var (
	errAccessDenied        = echo.NewHTTPError(http.StatusUnauthorized, "access denied")
	errInvalidToken        = echo.NewHTTPError(http.StatusBadRequest, "invalid token")
	errInvalidCredentials  = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errHttpForbidden       = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound        = echo.NewHTTPError(http.StatusNotFound, "not found")
	errClaimsNotFoundInCtx = errors.New("token claims not found in echo.Context")
)

// fieldMessages maps json field names to their error text.
type fieldMessages map[string]string

func translateValidation(verrs validator.ValidationErrors, translator ut.Translator) fieldMessages {
	msgs := make(fieldMessages, len(verrs))
	for _, fe := range verrs {
		msgs[fe.Field()] = fe.Translate(translator)
	}
	return msgs
}

// resolveError maps an error returned by a handler to a status code and a response body.
// Unknown errors map to 500.
func resolveError(err error, translator ut.Translator) (int, interface{}) {
	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if inner, ok := cause.Internal.(*echo.HTTPError); ok {
			cause = inner
		}
		return cause.Code, cause.Message
	case validator.ValidationErrors:
		return http.StatusBadRequest, translateValidation(cause, translator)
	case *core.ValidationError:
		if cause.Fields == nil {
			return http.StatusBadRequest, cause.Error()
		}
		msgs := make(fieldMessages, len(cause.Fields))
		for _, f := range cause.Fields {
			msgs[f.Field] = f.Error
		}
		return http.StatusBadRequest, msgs
	case *core.NotFoundError:
		return http.StatusNotFound, cause.Error()
	case *core.ConflictError:
		return http.StatusConflict, cause.Error()
	case *core.UnavailableError:
		return http.StatusServiceUnavailable, cause.Error()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// newAppHTTPErrorHandler returns the echo.HTTPErrorHandler rendering our errors as JSON.
// signalShutdown is called whenever a core shutdown error reaches it.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body := resolveError(err, translator)

		switch code {
		case http.StatusServiceUnavailable:
			logger.Warn(err.Error(), err, contextLogUser(ctx))
		case http.StatusInternalServerError:
			if _, isHTTP := errors.Cause(err).(*echo.HTTPError); !isHTTP {
				msg := body.(string)
				logger.Error(msg, errors.Wrap(err, msg), contextLogUser(ctx))
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
			if ctx.Echo().Debug {
				body = err.Error()
			}
		}
		if s, ok := body.(string); ok {
			body = echo.Map{"error": s}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func contextLogUser(ctx echo.Context) core.LogUser {
	var usr core.LogUser
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.ID
		usr.Email = claims.Email
	}
	return usr
}
