package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/types"
	"github.com/go-chi/chi/v5"
)

// FlashCookie holds the one-shot message shown after a browser redirect.
const FlashCookie = "bb_flash"

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WantsHTML reports whether the caller is a browser expecting pages rather than JSON.
func WantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

// WritePage answers a page read. Any pending flash is consumed and returned with the data.
func WritePage(w http.ResponseWriter, r *http.Request, data any) {
	flash := TakeFlash(w, r)
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{Data: data, Flash: flash})
}

// WriteMutation answers a successful state change: browsers are sent to
// redirect with a flash, API clients get the envelope with the given status.
func WriteMutation(w http.ResponseWriter, r *http.Request, status int, data any, redirect, flash string) {
	if WantsHTML(r) && redirect != "" {
		Redirect(w, r, redirect, flash)
		return
	}
	writeJSON(w, status, types.SuccessEnvelope{Data: data, Flash: flash})
}

// Redirect sends a 303 to location, storing flash for the next page read.
func Redirect(w http.ResponseWriter, r *http.Request, location, flash string) {
	if flash != "" {
		SetFlash(w, flash)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func SetFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// TakeFlash reads and clears the flash cookie.
func TakeFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(FlashCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}

// Fail writes err for the caller. Browsers are redirected: to /login when
// authentication is missing, to their landing page when access is denied and,
// for failed form posts, back to the page the form came from.
func Fail(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if logg != nil {
		ctx = logg.WithOperation(ctx, Operation(r))
	}
	if !WantsHTML(r) {
		WriteError(ctx, logg, w, err)
		return
	}

	typed := pkgerrors.As(err)
	switch typed.Code() {
	case pkgerrors.CodeUnauthorized:
		Redirect(w, r, "/login", "Please log in to continue.")
		return
	case pkgerrors.CodeForbidden:
		Redirect(w, r, actor.FromContext(r.Context()).LandingPage(), "You do not have access to that page.")
		return
	}
	if r.Method == http.MethodPost && pkgerrors.MetadataFor(typed.Code()).FormRecoverable {
		Redirect(w, r, backPath(r), typed.PublicMessage())
		return
	}
	WriteError(ctx, logg, w, err)
}

// Operation names the route that handled r, e.g. "POST /rent/{id}". Requests
// that never matched a route fall back to their raw path.
func Operation(r *http.Request) string {
	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			pattern = p
		}
	}
	return r.Method + " " + pattern
}

// backPath is the same-origin page that submitted the form, or the request path.
func backPath(r *http.Request) string {
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) && strings.HasPrefix(u.Path, "/") {
			if u.RawQuery != "" {
				return u.Path + "?" + u.RawQuery
			}
			return u.Path
		}
	}
	return r.URL.Path
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: typed.PublicMessage(),
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)

		fields := map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
			"http_status": meta.HTTPStatus,
		}
		if dump.PGCode != "" {
			fields["pg_code"] = dump.PGCode
			fields["pg_detail"] = dump.PGDetail
			fields["pg_message"] = dump.PGMessage
			fields["pg_table"] = dump.PGTable
			fields["pg_constraint"] = dump.PGConstraint
		}

		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
