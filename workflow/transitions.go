package workflow

import (
	"fmt"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/models"
)

type PropertyAction string

const (
	PropertyApprove PropertyAction = "approve"
	PropertyReject  PropertyAction = "reject"
	// PropertyComplete and PropertyReset are admin force actions.
	PropertyComplete PropertyAction = "complete"
	PropertyReset    PropertyAction = "reset"
	// PropertyOwnerEdit sends an edited listing back to review.
	PropertyOwnerEdit PropertyAction = "owner_edit"
	// PropertyDealClosed follows a contact request reaching deal_done.
	PropertyDealClosed PropertyAction = "deal_closed"
)

type RequestAction string

const (
	RequestDealDone      RequestAction = "deal_done"
	RequestNotInterested RequestAction = "not_interested"
	RequestSetPending    RequestAction = "set_pending"
)

var allPropertyStatuses = []models.PropertyStatus{
	models.PropertyPending,
	models.PropertyApproved,
	models.PropertyRejected,
	models.PropertyCompleted,
}

var allRequestStatuses = []models.RequestStatus{
	models.RequestPending,
	models.RequestDealDone,
	models.RequestNotInterested,
}

func propertyFromAny(to models.PropertyStatus) map[models.PropertyStatus]models.PropertyStatus {
	m := make(map[models.PropertyStatus]models.PropertyStatus, len(allPropertyStatuses))
	for _, from := range allPropertyStatuses {
		m[from] = to
	}
	return m
}

func requestFromAny(to models.RequestStatus) map[models.RequestStatus]models.RequestStatus {
	m := make(map[models.RequestStatus]models.RequestStatus, len(allRequestStatuses))
	for _, from := range allRequestStatuses {
		m[from] = to
	}
	return m
}

// propertyTransitions is keyed by action then current status. A missing
// entry is an illegal transition.
var propertyTransitions = map[PropertyAction]map[models.PropertyStatus]models.PropertyStatus{
	PropertyApprove:  propertyFromAny(models.PropertyApproved),
	PropertyReject:   propertyFromAny(models.PropertyRejected),
	PropertyComplete: propertyFromAny(models.PropertyCompleted),
	PropertyReset:    propertyFromAny(models.PropertyPending),
	PropertyOwnerEdit: {
		models.PropertyPending:  models.PropertyPending,
		models.PropertyApproved: models.PropertyPending,
		models.PropertyRejected: models.PropertyPending,
	},
	PropertyDealClosed: propertyFromAny(models.PropertyCompleted),
}

var requestTransitions = map[RequestAction]map[models.RequestStatus]models.RequestStatus{
	RequestDealDone: {
		models.RequestPending:  models.RequestDealDone,
		models.RequestDealDone: models.RequestDealDone,
	},
	RequestNotInterested: {
		models.RequestPending:       models.RequestNotInterested,
		models.RequestNotInterested: models.RequestNotInterested,
	},
	RequestSetPending: requestFromAny(models.RequestPending),
}

// NextPropertyStatus looks up the status a listing moves to.
func NextPropertyStatus(from models.PropertyStatus, action PropertyAction) (models.PropertyStatus, error) {
	if to, ok := propertyTransitions[action][from]; ok {
		return to, nil
	}
	if action == PropertyOwnerEdit && from == models.PropertyCompleted {
		return "", apperr.Conflict("Cannot edit completed properties.")
	}
	return "", apperr.InvalidOperation(fmt.Sprintf("Cannot %s a %s property", action, from))
}

func NextRequestStatus(from models.RequestStatus, action RequestAction) (models.RequestStatus, error) {
	if to, ok := requestTransitions[action][from]; ok {
		return to, nil
	}
	return "", apperr.InvalidOperation(fmt.Sprintf("Cannot move a %s request to %s", from, action))
}

// ModerationAction maps the admin route verbs to actions.
func ModerationAction(verb string) (PropertyAction, bool) {
	switch verb {
	case "approve":
		return PropertyApprove, true
	case "reject":
		return PropertyReject, true
	case "completed":
		return PropertyComplete, true
	case "pending":
		return PropertyReset, true
	}
	return "", false
}
