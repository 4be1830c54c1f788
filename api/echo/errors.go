package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/export"
	"github.com/escolarhq/escolar/core/institution"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *export.Error:
			code, message = exportErrorResponse(origErr)
			if code >= http.StatusInternalServerError {
				logger.Error(origErr.Message, err)
			}
		default:
			if origErr == institution.ErrNotFound {
				code = http.StatusNotFound
				message = origErr.Error()
				break
			}
			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg))
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// exportErrorResponse maps the closed error taxonomy onto HTTP statuses.
// The message field is user-facing; the kind travels as "code".
func exportErrorResponse(xerr *export.Error) (int, interface{}) {
	var status int
	switch xerr.Kind {
	case export.KindData:
		status = http.StatusBadRequest
	case export.KindPermission:
		status = http.StatusForbidden
	default: // GENERATION_ERROR, DOWNLOAD_ERROR
		status = http.StatusInternalServerError
	}
	return status, echo.Map{"error": xerr.Message, "code": string(xerr.Kind)}
}
