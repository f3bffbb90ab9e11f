package api

import (
	"errors"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/usecase"
	xhttp "PippyDesk/pkg/http"
	xlogger "PippyDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// toAppError maps domain errors onto API errors.
func toAppError(err error) *xhttp.AppError {
	switch {
	case usecase.IsAllSourcesUnavailable(err):
		return xhttp.ServiceUnavailableError("ERR_ALL_SOURCES_UNAVAILABLE",
			"All AI sources are unavailable. Please try again shortly.").WithError(err)
	case errors.Is(err, models.ErrValidation):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func errorResponse(c echo.Context, l *xlogger.Logger, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		l.Error(op+" failed", xlogger.Error(err), xlogger.String("code", appErr.Code))
	} else {
		l.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
