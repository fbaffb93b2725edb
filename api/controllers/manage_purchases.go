package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/purchases"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

func ManagePurchases(svc purchases.Service, opts OptionSources, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		list, err := svc.List(r.Context(), actor.FromContext(r.Context()), page)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		options, err := opts.load(r)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{
			"purchases": list,
			"options":   options,
		})
	}
}

// CreatePurchase records a procurement and stocks the bought bicycle.
func CreatePurchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body purchases.PurchaseRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		purchase, err := svc.Create(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusCreated, purchase, "/manage_purchases", "Purchase recorded.")
	}
}
