// Package auth is the authorization gate: it resolves a session credential
// to a user and decides whether that user may act on a resource.
package auth

import (
	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/models"
)

// Resource is anything with a single owning user.
type Resource interface {
	OwnedBy() string
}

type Relation int

const (
	// Owner requires the caller to own the resource.
	Owner Relation = iota + 1
	// OwnerOrAdmin also admits administrators.
	OwnerOrAdmin
	// Admin requires the admin role regardless of ownership.
	Admin
)

// Allow is the single authorization predicate applied before every mutating
// workflow operation.
func Allow(caller *models.User, resource Resource, rel Relation) bool {
	if caller == nil || caller.ID == "" {
		return false
	}
	owns := resource != nil && resource.OwnedBy() == caller.ID
	switch rel {
	case Owner:
		return owns
	case OwnerOrAdmin:
		return owns || caller.IsAdmin()
	case Admin:
		return caller.IsAdmin()
	default:
		return false
	}
}

// Require returns a Forbidden error carrying denial when Allow fails.
func Require(caller *models.User, resource Resource, rel Relation, denial string) error {
	if caller == nil {
		return apperr.Unauthenticated("Not authenticated")
	}
	if !Allow(caller, resource, rel) {
		return apperr.Forbidden(denial)
	}
	return nil
}

func RequireRole(caller *models.User, role models.Role) error {
	if caller == nil {
		return apperr.Unauthenticated("Not authenticated")
	}
	if caller.Role != role {
		if role == models.RoleAdmin {
			return apperr.Forbidden("Admin only")
		}
		return apperr.Forbidden("Forbidden")
	}
	return nil
}

// Requester views a contact request as owned by the user who sent it.
type Requester struct {
	Request *models.ContactRequest
}

func (r Requester) OwnedBy() string {
	return r.Request.InterestedUserID
}
