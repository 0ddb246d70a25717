package workflow

import (
	"context"
	"errors"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

const alreadyRequested = "Already sent a request for this property"

// CreateContactRequest records the caller's interest in a listing. The
// checks run in order: the property exists, the caller does not own it, and
// no request exists yet for the pair.
func (e *Engine) CreateContactRequest(ctx context.Context, caller *models.User, propertyID string) (*models.ContactRequest, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	property, err := e.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, notFound("get property", "Property not found", err)
	}
	if property.OwnedBy() == caller.ID {
		return nil, apperr.InvalidOperation("You cannot contact your own property")
	}
	_, err = e.store.FindContactRequest(ctx, property.ID, caller.ID)
	if err == nil {
		return nil, apperr.Conflict(alreadyRequested)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fail("find contact request", err)
	}

	request := &models.ContactRequest{
		PropertyID:       property.ID,
		InterestedUserID: caller.ID,
		OwnerUserID:      property.UserID,
		Status:           models.RequestPending,
	}
	if err := e.store.CreateContactRequest(ctx, request); err != nil {
		// The unique (property, interested user) index catches concurrent
		// requests that both passed the existence check.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict(alreadyRequested)
		}
		return nil, fail("create contact request", err)
	}
	e.logger.Info("contact request created",
		"request_id", request.ID,
		"property_id", property.ID,
		"user_id", caller.ID,
	)
	return request, nil
}

// TransitionContactRequest moves a request through its status machine. Only
// the listing owner or an admin may do so. Reaching deal_done completes the
// linked property in the same unit of work.
func (e *Engine) TransitionContactRequest(ctx context.Context, caller *models.User, id string, action RequestAction) (*models.ContactRequest, error) {
	request, err := e.store.GetContactRequest(ctx, id)
	if err != nil {
		return nil, notFound("get contact request", "Request not found", err)
	}
	if err := auth.Require(caller, request, auth.OwnerOrAdmin, "Not authorized to update this request"); err != nil {
		return nil, err
	}
	next, err := NextRequestStatus(request.Status, action)
	if err != nil {
		return nil, err
	}

	// The request is written before the property so a backend without
	// transactions never leaves a completed property behind a live request.
	var updated *models.ContactRequest
	err = e.store.RunInTx(ctx, func(ctx context.Context) error {
		var completion models.PropertyStatus
		if next == models.RequestDealDone {
			status, err := e.dealOutcome(ctx, request.PropertyID)
			if err != nil {
				return err
			}
			completion = status
		}
		r, err := e.store.SetContactRequestStatus(ctx, id, next)
		if err != nil {
			return notFound("set contact request status", "Request not found", err)
		}
		updated = r
		if completion == "" {
			return nil
		}
		if _, err := e.store.SetPropertyStatus(ctx, request.PropertyID, completion); err != nil {
			return notFound("complete property", "Property not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if next == models.RequestDealDone {
		e.invalidateListings(ctx)
	}
	e.logger.Info("contact request updated",
		"request_id", id,
		"from", request.Status,
		"to", next,
		"user_id", caller.ID,
	)
	return updated, nil
}

// dealOutcome checks the linked property can be closed and returns the
// status it moves to.
func (e *Engine) dealOutcome(ctx context.Context, propertyID string) (models.PropertyStatus, error) {
	property, err := e.store.GetProperty(ctx, propertyID)
	if err != nil {
		return "", notFound("get property", "Property not found", err)
	}
	return NextPropertyStatus(property.Status, PropertyDealClosed)
}

// DeleteContactRequest lets the interested user withdraw their request.
func (e *Engine) DeleteContactRequest(ctx context.Context, caller *models.User, id string) error {
	request, err := e.store.GetContactRequest(ctx, id)
	if err != nil {
		return notFound("get contact request", "Contact request not found", err)
	}
	if err := auth.Require(caller, auth.Requester{Request: request}, auth.Owner, "Not authorized to delete this request"); err != nil {
		return err
	}
	if err := e.store.DeleteContactRequest(ctx, id); err != nil {
		return notFound("delete contact request", "Contact request not found", err)
	}
	return nil
}

// ListContactRequests is the admin view over every request in a status.
func (e *Engine) ListContactRequests(ctx context.Context, caller *models.User, status models.RequestStatus) ([]models.ContactRequestView, error) {
	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	requests, err := e.store.ListContactRequests(ctx, store.ContactRequestFilter{Status: status})
	if err != nil {
		return nil, fail("list contact requests", err)
	}
	return e.populate(ctx, requests, true)
}

// MyContactRequests lists the caller's own requests in a status.
func (e *Engine) MyContactRequests(ctx context.Context, caller *models.User, status models.RequestStatus) ([]models.ContactRequestView, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	requests, err := e.store.ListContactRequests(ctx, store.ContactRequestFilter{
		Status:         status,
		InterestedUser: caller.ID,
	})
	if err != nil {
		return nil, fail("list contact requests", err)
	}
	return e.populate(ctx, requests, false)
}

// MyInterest returns the listings behind the caller's pending requests.
// Requests whose listing is gone are skipped.
func (e *Engine) MyInterest(ctx context.Context, caller *models.User) ([]models.InterestedProperty, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	requests, err := e.store.ListContactRequests(ctx, store.ContactRequestFilter{
		Status:         models.RequestPending,
		InterestedUser: caller.ID,
	})
	if err != nil {
		return nil, fail("list contact requests", err)
	}
	properties, err := e.propertiesByID(ctx, requests)
	if err != nil {
		return nil, err
	}

	out := make([]models.InterestedProperty, 0, len(requests))
	for _, r := range requests {
		p, ok := properties[r.PropertyID]
		if !ok {
			continue
		}
		out = append(out, models.InterestedProperty{RequestID: r.ID, Property: p})
	}
	return out, nil
}

func (e *Engine) propertiesByID(ctx context.Context, requests []models.ContactRequest) (map[string]*models.Property, error) {
	out := make(map[string]*models.Property)
	if len(requests) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.PropertyID)
	}
	props, err := e.store.ListProperties(ctx, store.PropertyFilter{IDs: ids})
	if err != nil {
		return nil, fail("load request properties", err)
	}
	for i := range props {
		out[props[i].ID] = &props[i]
	}
	return out, nil
}

// populate resolves the references of each request in two batch reads.
// References that no longer resolve are left nil.
func (e *Engine) populate(ctx context.Context, requests []models.ContactRequest, withInterested bool) ([]models.ContactRequestView, error) {
	views := make([]models.ContactRequestView, 0, len(requests))
	if len(requests) == 0 {
		return views, nil
	}
	properties, err := e.propertiesByID(ctx, requests)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, 2*len(requests))
	for _, r := range requests {
		userIDs = append(userIDs, r.OwnerUserID)
		if withInterested {
			userIDs = append(userIDs, r.InterestedUserID)
		}
	}
	users, err := e.store.ListUsers(ctx, store.UserFilter{IDs: userIDs})
	if err != nil {
		return nil, fail("load request users", err)
	}
	summaries := make(map[string]*models.UserSummary, len(users))
	for i := range users {
		summaries[users[i].ID] = users[i].Summary()
	}

	for _, r := range requests {
		view := models.ContactRequestView{
			ID:        r.ID,
			Property:  properties[r.PropertyID],
			Owner:     summaries[r.OwnerUserID],
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if withInterested {
			view.InterestedUser = summaries[r.InterestedUserID]
		}
		views = append(views, view)
	}
	return views, nil
}
