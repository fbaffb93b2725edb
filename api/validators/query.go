package validators

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

const maxPage = 1_000_000

// ParsePage reads the 1-based ?page= parameter. Numbers outside 1..maxPage
// are clamped; pages past the end come back empty.
func ParsePage(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return 1, nil
			}
			return maxPage, nil
		}
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": "page"})
	}
	return max(1, min(value, maxPage)), nil
}

// ParseOptionalUintQuery returns nil when the parameter is absent or empty.
func ParseOptionalUintQuery(r *http.Request, key string) (*uint, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative integer").WithDetails(map[string]any{"field": key})
	}
	id := uint(value)
	return &id, nil
}

// ParseUintParam reads a positive id from the chi route.
func ParseUintParam(r *http.Request, name string) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": name})
	}
	return uint(value), nil
}

// ParseUintValue reads a positive id from the query string or form body.
func ParseUintValue(r *http.Request, key string) (uint, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{key: "is required"})
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{key: "is invalid"})
	}
	return uint(value), nil
}
