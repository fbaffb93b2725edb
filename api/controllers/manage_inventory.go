package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/internal/suppliers"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

func ManageBranches(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), actor.FromContext(r.Context()))
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{"branches": list})
	}
}

func CreateBranch(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body branches.BranchRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		branch, err := svc.Create(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusCreated, branch, "/manage_branches", "Branch added.")
	}
}

func UpdateBranch(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		var body branches.BranchRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		if err := svc.Update(r.Context(), actor.FromContext(r.Context()), id, body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"updated": id}, "/manage_branches", "Branch updated.")
	}
}

func DeleteBranch(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"deleted": id}, "/manage_branches", "Branch deleted.")
	}
}

func ManageCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), actor.FromContext(r.Context()))
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{"categories": list})
	}
}

func CreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body categories.CategoryRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		category, err := svc.Create(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusCreated, category, "/manage_categories", "Category added.")
	}
}

// DeleteCategory removes a category; its bicycles fall back to no category.
func DeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"deleted": id}, "/manage_categories", "Category deleted.")
	}
}

func ManageSuppliers(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), actor.FromContext(r.Context()))
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{"suppliers": list})
	}
}

func CreateSupplier(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body suppliers.SupplierRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		supplier, err := svc.Create(r.Context(), actor.FromContext(r.Context()), body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusCreated, supplier, "/manage_suppliers", "Supplier added.")
	}
}

func UpdateSupplier(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		var body suppliers.SupplierRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		if err := svc.Update(r.Context(), actor.FromContext(r.Context()), id, body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"updated": id}, "/manage_suppliers", "Supplier updated.")
	}
}

func DeleteSupplier(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"deleted": id}, "/manage_suppliers", "Supplier deleted.")
	}
}
