// Package middleware scopes module requests to the tenant named by their
// bearer token.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey struct{}

// ErrNoTenant is returned by TenantFrom when the request was not scoped.
var ErrNoTenant = errors.New("tenant not found in request context")

// TenantResolver maps a bearer token to the tenant it was issued for.
type TenantResolver interface {
	ResolveTenant(token string) (string, error)
}

// RequireTenant rejects requests without a resolvable, non-blank tenant and
// passes the rest on with the tenant in their context. A nil resolver
// rejects everything.
func RequireTenant(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				unauthorized(w)
				return
			}
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			tenant, err := resolver.ResolveTenant(token)
			tenant = strings.TrimSpace(tenant)
			if err != nil || tenant == "" {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="modules"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// WithTenant returns a context carrying the tenant.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, contextKey{}, tenant)
}

// TenantFrom returns the tenant RequireTenant stored on the request.
func TenantFrom(r *http.Request) (string, error) {
	tenant, ok := r.Context().Value(contextKey{}).(string)
	if !ok || tenant == "" {
		return "", ErrNoTenant
	}
	return tenant, nil
}
