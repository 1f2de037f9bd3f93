package middleware

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/appcontext"
	"github.com/Ramsey-B/fern/internal/tracing"
)

type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// errorCode buckets a status into the code clients switch on.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "configuration_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "request_error"
}

// Error renders every handler error as an ErrorResponse carrying the
// request id, trace id, and taxonomy code for the tenant's request.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()

		status := http.StatusInternalServerError
		message := "internal server error"
		var meta map[string]any

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		if httperror.IsHTTPError(err) {
			httperr := httperror.ToHTTPError(err)
			status = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		}

		logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"status":    status,
			"code":      errorCode(status),
			"tenant_id": appcontext.GetTenantID(ctx),
			"route":     appcontext.GetRoute(ctx),
		}).Error("request error")

		_ = c.JSON(status, ErrorResponse{
			Code:      errorCode(status),
			Message:   message,
			RequestID: appcontext.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
