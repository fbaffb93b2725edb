package middleware

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	pkgAuth "github.com/bikebuddy/bikebuddy-backend/pkg/auth"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth/session"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

// Auth resolves the request actor from a bearer token or the session cookie.
// Requests without a usable token continue as the guest actor; route groups
// that need a user add RequireAuth or RequireRoles.
func Auth(cfg config.JWTConfig, cookieName string, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, fromCookie := tokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r.WithContext(actor.WithActor(ctx, actor.Guest())))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err == nil && claims.ID == "" {
				err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
			}
			if err == nil && verifier != nil {
				var ok bool
				ok, err = verifier.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					err = pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
				}
			}
			if err != nil {
				if logg != nil {
					logg.Debug(logg.WithField(ctx, "reason", err.Error()), "auth.token_rejected")
				}
				if fromCookie {
					ClearSessionCookie(w, cookieName, false)
				}
				next.ServeHTTP(w, r.WithContext(actor.WithActor(ctx, actor.Guest())))
				return
			}

			a := actor.Actor{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
				BranchID: claims.BranchID,
			}
			ctx = actor.WithActor(ctx, a)
			ctx = withAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, a.UserID)
				ctx = logg.WithActorRole(ctx, string(a.Role))
				if branchID, ok := a.HomeBranch(); ok {
					ctx = logg.WithBranchID(ctx, branchID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie hands the access token to a browser.
func SetSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
