package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/internal/rentals"
	"github.com/bikebuddy/bikebuddy-backend/internal/users"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/security"
)

const (
	dashboardRecentRentals = 5
	dashboardAvailable     = 5
)

// Dashboard greets the caller with their profile, latest rentals and a few
// bicycles they could rent right now.
func Dashboard(userSvc users.Service, rentalSvc rentals.Service, catalog bicycles.CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := actor.FromContext(r.Context())
		profile, err := userSvc.Profile(r.Context(), a)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		recent, err := rentalSvc.Recent(r.Context(), a, dashboardRecentRentals)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		available, err := catalog.ListAvailable(r.Context(), a, bicycles.CatalogFilter{}, 1)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		bikes := available.Items
		if len(bikes) > dashboardAvailable {
			bikes = bikes[:dashboardAvailable]
		}
		responses.WritePage(w, r, map[string]any{
			"user":               profile,
			"recent_rentals":     recent,
			"available_bicycles": bikes,
		})
	}
}

func Profile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Profile(r.Context(), actor.FromContext(r.Context()))
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, profile)
	}
}

func UpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body users.UpdateProfileRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		profile, err := svc.UpdateProfile(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, profile, "/profile", "Profile updated.")
	}
}

func ChangePassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body users.ChangePasswordRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		if err := svc.ChangePassword(r.Context(), actor.FromContext(r.Context()), body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, map[string]bool{"changed": true}, "/profile", "Password changed.")
	}
}

// ChangePasswordPage describes the password form.
func ChangePasswordPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WritePage(w, r, map[string]any{
			"username":            actor.FromContext(r.Context()).Username,
			"min_password_length": security.MinPasswordLength,
		})
	}
}
