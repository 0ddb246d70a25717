// Package store declares the persistence contract the workflow engine runs
// against. Backends live in subpackages: mongostore, sqlstore and memstore.
package store

import (
	"context"
	"errors"

	"github.com/deep-dholariya/backend/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
	ErrNotReady  = errors.New("store: handle is not open")
)

type UserFilter struct {
	IDs []string
}

type Users interface {
	// CreateUser assigns ID and timestamps. It fails with ErrDuplicate when the
	// email or mobile number is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// FindUserByIdentifier matches identifier against email or mobile number.
	FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// FindUserByEmailOrMobile returns the first user holding either value.
	FindUserByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
}

type PropertyFilter struct {
	IDs    []string
	Owner  string
	Status models.PropertyStatus
	// ExcludeOwner drops listings owned by this user.
	ExcludeOwner string
	// LocationContains is a case-insensitive literal substring.
	LocationContains string
}

type Properties interface {
	CreateProperty(ctx context.Context, property *models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	// UpdateProperty replaces the editable fields and status.
	UpdateProperty(ctx context.Context, property *models.Property) error
	SetPropertyStatus(ctx context.Context, id string, status models.PropertyStatus) (*models.Property, error)
	DeleteProperty(ctx context.Context, id string) error
	DeletePropertiesByOwner(ctx context.Context, owner string) (int64, error)
	// ListProperties returns matches newest first.
	ListProperties(ctx context.Context, filter PropertyFilter) ([]models.Property, error)
}

type ContactRequestFilter struct {
	Status         models.RequestStatus
	InterestedUser string
}

// ContactRequestPurge selects requests for bulk deletion. A request matches
// when it references any listed property or involves User as the interested
// party or the owner.
type ContactRequestPurge struct {
	PropertyIDs []string
	User        string
}

func (p ContactRequestPurge) Empty() bool {
	return len(p.PropertyIDs) == 0 && p.User == ""
}

type ContactRequests interface {
	// CreateContactRequest fails with ErrDuplicate when a request for the same
	// (property, interested user) pair exists.
	CreateContactRequest(ctx context.Context, request *models.ContactRequest) error
	GetContactRequest(ctx context.Context, id string) (*models.ContactRequest, error)
	FindContactRequest(ctx context.Context, propertyID, interestedUserID string) (*models.ContactRequest, error)
	SetContactRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.ContactRequest, error)
	DeleteContactRequest(ctx context.Context, id string) error
	DeleteContactRequests(ctx context.Context, purge ContactRequestPurge) (int64, error)
	// ListContactRequests returns matches newest first.
	ListContactRequests(ctx context.Context, filter ContactRequestFilter) ([]models.ContactRequest, error)
}

// Store is an explicitly constructed handle. It starts idle, becomes usable
// after Init and rejects work with ErrNotReady once closed.
type Store interface {
	Users
	Properties
	ContactRequests

	Init(ctx context.Context) error
	Close(ctx context.Context) error
	State() State

	// RunInTx runs fn as one unit. Backends without transactions run fn
	// directly; fn must then tolerate partial application.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
