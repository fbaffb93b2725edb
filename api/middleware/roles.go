package middleware

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

// RequireAuth rejects guests.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !actor.FromContext(r.Context()).IsAuthenticated() {
				responses.Fail(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles admits authenticated actors holding one of roles.
func RequireRoles(logg *logger.Logger, roles ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := actor.FromContext(r.Context())
			if !a.IsAuthenticated() {
				responses.Fail(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !a.Is(roles...) {
				responses.Fail(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
