package testutil

import (
	"net/http"

	"idvmgt/pkg/requestcontext"
)

// WithTenantID adds a tenant ID to the request context the way the auth
// middleware does for a validated token.
func WithTenantID(req *http.Request, tenantID int) *http.Request {
	return req.WithContext(requestcontext.WithTenantID(req.Context(), tenantID))
}

// TenantMiddleware stands in for auth in handler tests.
func TenantMiddleware(tenantID int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, WithTenantID(r, tenantID))
		})
	}
}
