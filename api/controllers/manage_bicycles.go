package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/internal/suppliers"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

// OptionSources feeds the select boxes of the management forms.
type OptionSources struct {
	Branches   branches.Service
	Categories categories.Service
	Suppliers  suppliers.Service
}

func (o OptionSources) load(r *http.Request) (map[string]any, error) {
	ctx := r.Context()
	branchOpts, err := o.Branches.Options(ctx)
	if err != nil {
		return nil, err
	}
	categoryOpts, err := o.Categories.Options(ctx)
	if err != nil {
		return nil, err
	}
	supplierOpts, err := o.Suppliers.Options(ctx, actor.FromContext(ctx))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"branches":   branchOpts,
		"categories": categoryOpts,
		"suppliers":  supplierOpts,
	}, nil
}

func ManageBicycles(svc bicycles.ManageService, opts OptionSources, logg *logger.Logger) http.HandlerFunc {
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
			"bicycles": list,
			"options":  options,
		})
	}
}

func CreateBicycle(svc bicycles.ManageService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bicycles.BicycleRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		bike, err := svc.Create(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusCreated, bike, "/manage_bicycles", "Bicycle added.")
	}
}

func UpdateBicycle(svc bicycles.ManageService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		var body bicycles.BicycleRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		bike, err := svc.Update(r.Context(), actor.FromContext(r.Context()), id, body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, bike, "/manage_bicycles", "Bicycle updated.")
	}
}

func DeleteBicycle(svc bicycles.ManageService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		if err := svc.Delete(r.Context(), actor.FromContext(r.Context()), id); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"deleted": id}, "/manage_bicycles", "Bicycle deleted.")
	}
}
