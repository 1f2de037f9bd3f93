package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/appcontext"
)

const (
	// HeaderTenantID scopes every data-bearing route to a tenant
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID identifies the caller for audit fields
	HeaderUserID = "X-User-ID"
)

// Context seeds the request context with the identifiers the repositories,
// loggers, and error responses read back out. Registered with Use, so path
// params like :project_id are already bound when it runs.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = appcontext.SetRequestID(ctx, requestID)
			ctx = appcontext.SetTenantID(ctx, req.Header.Get(HeaderTenantID))
			ctx = appcontext.SetUserID(ctx, req.Header.Get(HeaderUserID))
			ctx = appcontext.SetMethod(ctx, req.Method)
			ctx = appcontext.SetRoute(ctx, c.Path())
			ctx = appcontext.SetRemoteIP(ctx, c.RealIP())
			if projectID := c.Param("project_id"); projectID != "" {
				ctx = appcontext.SetProjectID(ctx, projectID)
			}

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
