package sqlstore

import (
	"time"

	"github.com/deep-dholariya/backend/models"
)

type userRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	MobileNumber string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null"`
	Role         string `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type propertyRow struct {
	ID       string `gorm:"primaryKey;size:36"`
	UserID   string `gorm:"size:36;index;not null"`
	Title    string `gorm:"not null"`
	Location string `gorm:"not null"`
	// LocationFold is Location lowercased in Go. Search runs against it
	// because SQLite's LOWER only folds ASCII.
	LocationFold string    `gorm:"index"`
	Price        float64   `gorm:"not null"`
	Images       []string  `gorm:"serializer:json;type:text;not null"`
	Status       string    `gorm:"size:16;index;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (propertyRow) TableName() string { return "properties" }

type contactRequestRow struct {
	ID               string    `gorm:"primaryKey;size:36"`
	PropertyID       string    `gorm:"size:36;not null;uniqueIndex:idx_request_property_interested"`
	InterestedUserID string    `gorm:"size:36;not null;uniqueIndex:idx_request_property_interested"`
	OwnerUserID      string    `gorm:"size:36;not null;index"`
	Status           string    `gorm:"size:16;index;not null"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (contactRequestRow) TableName() string { return "contact_requests" }

func (r *userRow) model() *models.User {
	return &models.User{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		MobileNumber: r.MobileNumber,
		Password:     r.Password,
		Role:         models.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *propertyRow) model() *models.Property {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return &models.Property{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Location:  r.Location,
		Price:     r.Price,
		Images:    images,
		Status:    models.PropertyStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *contactRequestRow) model() *models.ContactRequest {
	return &models.ContactRequest{
		ID:               r.ID,
		PropertyID:       r.PropertyID,
		InterestedUserID: r.InterestedUserID,
		OwnerUserID:      r.OwnerUserID,
		Status:           models.RequestStatus(r.Status),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
