package middleware

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderTenantID is the header key for tenant ID
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID is the header key for user ID
	HeaderUserID = "X-User-ID"
	// HeaderUserName is the header key for the user's display name
	HeaderUserName = "X-User-Name"
	// HeaderUserRoles is the header key for comma-separated roles
	HeaderUserRoles = "X-User-Roles"
)

// Context copies caller identity from trusted gateway headers into the
// request context. Authentication itself happens upstream (or in the
// optional OIDC middleware); the core only reads these values.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			tenantID := req.Header.Get(HeaderTenantID)
			userID := req.Header.Get(HeaderUserID)
			userName := req.Header.Get(HeaderUserName)

			var roles []string
			if raw := req.Header.Get(HeaderUserRoles); raw != "" {
				for _, role := range strings.Split(raw, ",") {
					if role = strings.TrimSpace(role); role != "" {
						roles = append(roles, role)
					}
				}
			}

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetTenantID(ctx, tenantID)
			ctx = context.SetUserID(ctx, userID)
			ctx = context.SetUserName(ctx, userName)
			ctx = context.SetUserRoles(ctx, roles)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
