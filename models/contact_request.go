package models

import "time"

type RequestStatus string

const (
	RequestPending       RequestStatus = "pending"
	RequestDealDone      RequestStatus = "deal_done"
	RequestNotInterested RequestStatus = "not_interested"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestDealDone, RequestNotInterested:
		return true
	}
	return false
}

// ContactRequest records a buyer's interest in a listing. OwnerUserID is a
// snapshot of the property owner taken when the request is created.
type ContactRequest struct {
	ID               string        `json:"_id"`
	PropertyID       string        `json:"propertyId"`
	InterestedUserID string        `json:"interestedUserId"`
	OwnerUserID      string        `json:"ownerUserId"`
	Status           RequestStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (r *ContactRequest) OwnedBy() string {
	return r.OwnerUserID
}

// ContactRequestView is a contact request with its references resolved.
// A reference that no longer resolves is rendered as null.
type ContactRequestView struct {
	ID             string        `json:"_id"`
	Property       *Property     `json:"propertyId"`
	InterestedUser *UserSummary  `json:"interestedUserId,omitempty"`
	Owner          *UserSummary  `json:"ownerUserId"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// InterestedProperty is a listing the caller has a pending request on,
// tagged with that request's id.
type InterestedProperty struct {
	RequestID string `json:"requestId"`
	*Property
}
