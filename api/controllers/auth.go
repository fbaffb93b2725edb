package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/middleware"
	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/auth"
	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

// LoginPage tells an already signed-in caller where to go.
func LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := actor.FromContext(r.Context())
		if a.IsAuthenticated() && responses.WantsHTML(r) {
			responses.Redirect(w, r, a.LandingPage(), "")
			return
		}
		responses.WritePage(w, r, map[string]any{
			"authenticated": a.IsAuthenticated(),
			"redirect":      a.LandingPage(),
		})
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		middleware.SetSessionCookie(w, cfg.Session, result.AccessToken, int(cfg.JWT.AccessTokenTTL().Seconds()))
		responses.WriteMutation(w, r, http.StatusOK, result, result.Redirect, "Welcome back, "+result.User.Username+".")
	}
}

// SignupPage lists the branches a new customer can pick.
func SignupPage(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := svc.Options(r.Context())
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{
			"branches":         opts,
			"signup_available": len(opts) > 0,
		})
	}
}

func AuthSignup(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.SignupRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		result, err := svc.Signup(r.Context(), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		middleware.SetSessionCookie(w, cfg.Session, result.AccessToken, int(cfg.JWT.AccessTokenTTL().Seconds()))
		responses.WriteMutation(w, r, http.StatusCreated, result, result.Redirect, "Your account has been created.")
	}
}

// AuthLogout revokes the current session and drops the cookie.
func AuthLogout(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		middleware.ClearSessionCookie(w, cfg.Session.CookieName, cfg.Session.CookieSecure)
		responses.WriteMutation(w, r, http.StatusOK, map[string]bool{"logged_out": true}, "/login", "You have been logged out.")
	}
}

func AuthRefresh(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RefreshRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		if body.AccessToken == "" {
			if cookie, err := r.Cookie(cfg.Session.CookieName); err == nil {
				body.AccessToken = cookie.Value
			}
		}

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		middleware.SetSessionCookie(w, cfg.Session, result.AccessToken, int(cfg.JWT.AccessTokenTTL().Seconds()))
		responses.WriteSuccess(w, result)
	}
}
