package controllers

import (
	"fmt"
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/internal/rentals"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

// RentPage shows the bicycle a rental form is for.
func RentPage(catalog bicycles.CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintValue(r, "bicycle_id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		bike, err := catalog.GetDetails(r.Context(), actor.FromContext(r.Context()), id)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{"bicycle": bike})
	}
}

func Rent(svc rentals.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body rentals.RentRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		result, err := svc.Rent(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		flash := fmt.Sprintf("Rental confirmed. Total: %s %s", currency, result.TotalCost.StringFixed(2))
		responses.WriteMutation(w, r, http.StatusCreated, result, "/dashboard", flash)
	}
}

// ReturnRental closes the caller's own rental named by ?rental_id=.
func ReturnRental(svc rentals.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintValue(r, "rental_id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		writeReturn(w, r, svc, id, currency, "/my_rentals", logg)
	}
}

// ManagedReturn lets staff close a rental from the management page.
func ManagedReturn(svc rentals.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		writeReturn(w, r, svc, id, currency, "/manage_rentals", logg)
	}
}

func writeReturn(w http.ResponseWriter, r *http.Request, svc rentals.Service, id uint, currency, redirect string, logg *logger.Logger) {
	result, err := svc.Return(r.Context(), actor.FromContext(r.Context()), id)
	if err != nil {
		responses.Fail(r.Context(), logg, w, r, err)
		return
	}

	flash := "Nothing to return."
	if result.Returned && result.TotalCost != nil {
		flash = fmt.Sprintf("Bicycle returned. Total: %s %s", currency, result.TotalCost.StringFixed(2))
	}
	responses.WriteMutation(w, r, http.StatusOK, result, redirect, flash)
}

func MyRentals(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		result, err := svc.ListMine(r.Context(), actor.FromContext(r.Context()), page)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, result)
	}
}

// RentalDetails reads ?id= (or rental_id=) and shows one rental with its payment.
func RentalDetails(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := "id"
		if r.URL.Query().Get(key) == "" && r.URL.Query().Get("rental_id") != "" {
			key = "rental_id"
		}
		id, err := validators.ParseUintValue(r, key)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		details, err := svc.Details(r.Context(), actor.FromContext(r.Context()), id)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, details)
	}
}

// ManageRentals lists the rentals the caller supervises.
func ManageRentals(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		result, err := svc.ListManaged(r.Context(), actor.FromContext(r.Context()), page)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, result)
	}
}
