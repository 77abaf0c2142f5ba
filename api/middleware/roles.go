package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-client/api/responses"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

// RoleSource reports the live session role.
type RoleSource interface {
	CurrentRole() enums.Role
}

// Session reads the session role on every request and stores it in the
// request context, so a login or logout applies to the very next request.
func Session(src RoleSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := src.CurrentRole()
			ctx := withRole(r.Context(), role.String())
			if logg != nil {
				ctx = logg.WithActorRole(ctx, role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose session role is not role. Guests get
// 401; other signed-in roles get 403.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := RoleFromContext(r.Context())
			if current == role.String() {
				next.ServeHTTP(w, r)
				return
			}
			code := pkgerrors.CodeForbidden
			if current == "" || current == enums.RoleGuest.String() {
				code = pkgerrors.CodeUnauthorized
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(code, role.String()+" login required"))
		})
	}
}
