package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FullName     string             `bson:"fullName"`
	Email        string             `bson:"email"`
	MobileNumber string             `bson:"mobileNumber"`
	Password     string             `bson:"password"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type propertyDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Title     string             `bson:"title"`
	Location  string             `bson:"location"`
	Price     float64            `bson:"price"`
	Images    []string           `bson:"images"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type contactRequestDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	PropertyID       primitive.ObjectID `bson:"propertyId"`
	InterestedUserID primitive.ObjectID `bson:"interestedUserId"`
	OwnerUserID      primitive.ObjectID `bson:"ownerUserId"`
	Status           string             `bson:"status"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

// objectID parses a hex id. Malformed ids cannot name a stored document, so
// they surface as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

// objectIDs parses ids, dropping malformed entries.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexOrEmpty(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		MobileNumber: d.MobileNumber,
		Password:     d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d *propertyDoc) model() *models.Property {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &models.Property{
		ID:        d.ID.Hex(),
		UserID:    hexOrEmpty(d.UserID),
		Title:     d.Title,
		Location:  d.Location,
		Price:     d.Price,
		Images:    images,
		Status:    models.PropertyStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d *contactRequestDoc) model() *models.ContactRequest {
	return &models.ContactRequest{
		ID:               d.ID.Hex(),
		PropertyID:       hexOrEmpty(d.PropertyID),
		InterestedUserID: hexOrEmpty(d.InterestedUserID),
		OwnerUserID:      hexOrEmpty(d.OwnerUserID),
		Status:           models.RequestStatus(d.Status),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
