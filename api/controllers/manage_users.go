package controllers

import (
	"net/http"

	"github.com/bikebuddy/bikebuddy-backend/api/responses"
	"github.com/bikebuddy/bikebuddy-backend/api/validators"
	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/users"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
)

func ManageUsers(svc users.Service, branchSvc branches.Service, pageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		list, err := svc.List(r.Context(), actor.FromContext(r.Context()), pagination.Params{Page: page, Limit: pageSize})
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		branchOpts, err := branchSvc.Options(r.Context())
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WritePage(w, r, map[string]any{
			"users":    list,
			"branches": branchOpts,
			"roles":    enums.Roles(),
		})
	}
}

func UpdateUserRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUintParam(r, "id")
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		var body users.UpdateRoleRequest
		if err := validators.DecodeRequest(r, &body); err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		user, err := svc.UpdateRole(r.Context(), actor.FromContext(r.Context()), id, body)
		if err != nil {
			responses.Fail(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteMutation(w, r, http.StatusOK, user, "/manage_users", "User updated.")
	}
}

func DeleteUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteMutation(w, r, http.StatusOK, map[string]uint{"deleted": id}, "/manage_users", "User deleted.")
	}
}
