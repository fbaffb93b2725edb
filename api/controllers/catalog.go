package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

// BrowseBicycles serves the public catalog with its branch and category filters.
func BrowseBicycles(svc bicycles.CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		branchID, err := validators.ParseOptionalUintQuery(r, "branch")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		categoryID, err := validators.ParseOptionalUintQuery(r, "category")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		if categoryID != nil && *categoryID == 0 {
			categoryID = nil
		}

		a := actor.FromContext(r.Context())
		filter := bicycles.CatalogFilter{BranchID: branchID, CategoryID: categoryID}
		result, err := svc.ListAvailable(r.Context(), a, filter, page)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		filters, err := svc.Filters(r.Context())
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}

		responses.WritePage(w, r, map[string]any{
			"bicycles": result,
			"filters":  filters,
		})
	}
}

func BicycleDetails(svc bicycles.CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		bike, err := svc.GetDetails(r.Context(), actor.FromContext(r.Context()), id)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, bike)
	}
}
