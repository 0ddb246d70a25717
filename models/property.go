package models

import "time"

type PropertyStatus string

const (
	PropertyPending   PropertyStatus = "pending"
	PropertyApproved  PropertyStatus = "approved"
	PropertyRejected  PropertyStatus = "rejected"
	PropertyCompleted PropertyStatus = "completed"
)

var propertyStatuses = []PropertyStatus{PropertyPending, PropertyApproved, PropertyRejected, PropertyCompleted}

func (s PropertyStatus) Valid() bool {
	for _, known := range propertyStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func ParsePropertyStatus(raw string) (PropertyStatus, bool) {
	s := PropertyStatus(raw)
	return s, s.Valid()
}

type Property struct {
	ID        string         `json:"_id"`
	UserID    string         `json:"userId,omitempty"`
	Title     string         `json:"title"`
	Location  string         `json:"location"`
	Price     float64        `json:"price"`
	Images    []string       `json:"images"`
	Status    PropertyStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (p *Property) OwnedBy() string {
	return p.UserID
}

// PropertyInput carries the owner-editable fields of a listing.
type PropertyInput struct {
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Price    float64  `json:"price"`
	Images   []string `json:"images"`
}
