package visibility

import (
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
)

// EnsureBranchVisible hides records of other branches from actors tied to a
// branch. Admins and purchasing managers have no branch and see everything.
func EnsureBranchVisible(a actor.Actor, branchID uint, what string) error {
	home, ok := a.HomeBranch()
	if !ok {
		return nil
	}
	if home != branchID {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return nil
}

// EnsureBranchWritable rejects a branch manager acting on another branch's records.
func EnsureBranchWritable(a actor.Actor, branchID uint) error {
	if a.Role == enums.RoleAdmin {
		return nil
	}
	if a.Role != enums.RoleBranchManager {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions")
	}
	home, ok := a.HomeBranch()
	if !ok || home != branchID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you can only manage your own branch")
	}
	return nil
}

// ManagedBranchScope returns the branch filter for management listings: nil for
// admins (all branches), the home branch for branch managers.
func ManagedBranchScope(a actor.Actor) (*uint, error) {
	switch a.Role {
	case enums.RoleAdmin:
		return nil, nil
	case enums.RoleBranchManager:
		home, ok := a.HomeBranch()
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "branch manager has no branch")
		}
		return &home, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions")
	}
}
