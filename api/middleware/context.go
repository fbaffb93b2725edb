package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const ctxAccessID contextKey = "access_id"

// AccessIDFromContext returns the session access id of the authenticated request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// tokenFromRequest prefers the Authorization header and falls back to the
// session cookie. fromCookie is true when the cookie supplied the token.
func tokenFromRequest(r *http.Request, cookieName string) (token string, fromCookie bool) {
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:]), false
		}
		return raw, false
	}
	if cookieName == "" {
		return "", false
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(cookie.Value), true
}
