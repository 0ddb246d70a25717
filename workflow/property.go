package workflow

import (
	"context"
	"strings"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/cache"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
	"github.com/deep-dholariya/backend/utils"
)

const notOwner = "You are not the owner of this property."

func validateProperty(in models.PropertyInput) (models.PropertyInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if in.Title == "" || in.Location == "" || in.Price <= 0 || len(in.Images) == 0 {
		return in, apperr.Validation("All fields including at least one image are required")
	}
	for _, img := range in.Images {
		if !utils.IsEncodedImage(img) {
			return in, apperr.Validation("Invalid image format")
		}
	}
	return in, nil
}

// CreateProperty lists a property for review.
func (e *Engine) CreateProperty(ctx context.Context, caller *models.User, in models.PropertyInput) (*models.Property, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	in, err := validateProperty(in)
	if err != nil {
		return nil, err
	}
	property := &models.Property{
		UserID:   caller.ID,
		Title:    in.Title,
		Location: in.Location,
		Price:    in.Price,
		Images:   append([]string(nil), in.Images...),
		Status:   models.PropertyPending,
	}
	if err := e.store.CreateProperty(ctx, property); err != nil {
		return nil, fail("create property", err)
	}
	e.invalidateListings(ctx)
	e.logger.Info("property created", "property_id", property.ID, "user_id", caller.ID)
	return property, nil
}

func (e *Engine) MyProperties(ctx context.Context, caller *models.User) ([]models.Property, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	props, err := e.store.ListProperties(ctx, store.PropertyFilter{Owner: caller.ID})
	if err != nil {
		return nil, fail("list own properties", err)
	}
	return props, nil
}

// UpdateProperty replaces the listing fields and sends it back to review.
// Completed listings cannot be edited by their owner.
func (e *Engine) UpdateProperty(ctx context.Context, caller *models.User, id string, in models.PropertyInput) (*models.Property, error) {
	property, err := e.store.GetProperty(ctx, id)
	if err != nil {
		return nil, notFound("get property", "Property not found", err)
	}
	if err := auth.Require(caller, property, auth.Owner, notOwner); err != nil {
		return nil, err
	}
	next, err := NextPropertyStatus(property.Status, PropertyOwnerEdit)
	if err != nil {
		return nil, err
	}
	in, err = validateProperty(in)
	if err != nil {
		return nil, err
	}

	property.Title = in.Title
	property.Location = in.Location
	property.Price = in.Price
	property.Images = append([]string(nil), in.Images...)
	property.Status = next
	if err := e.store.UpdateProperty(ctx, property); err != nil {
		return nil, notFound("update property", "Property not found", err)
	}
	e.invalidateListings(ctx)
	return property, nil
}

// DeleteProperty removes an owned listing together with its contact requests.
func (e *Engine) DeleteProperty(ctx context.Context, caller *models.User, id string) error {
	property, err := e.store.GetProperty(ctx, id)
	if err != nil {
		return notFound("get property", "Property not found", err)
	}
	if err := auth.Require(caller, property, auth.Owner, notOwner); err != nil {
		return err
	}

	var removed int64
	err = e.store.RunInTx(ctx, func(ctx context.Context) error {
		n, err := e.store.DeleteContactRequests(ctx, store.ContactRequestPurge{PropertyIDs: []string{id}})
		if err != nil {
			return fail("delete contact requests", err)
		}
		removed = n
		if err := e.store.DeleteProperty(ctx, id); err != nil {
			return notFound("delete property", "Property not found", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.invalidateListings(ctx)
	e.logger.Info("property deleted", "property_id", id, "contact_requests", removed)
	return nil
}

// SearchProperties matches approved listings whose location contains query,
// ignoring case.
func (e *Engine) SearchProperties(ctx context.Context, caller *models.User, query string) ([]models.Property, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("Search query is required")
	}

	key := cache.ListingKey("search", "", map[string]string{"query": strings.ToLower(query)})
	var cached []models.Property
	if e.listings.Get(ctx, key, &cached) {
		return cached, nil
	}
	props, err := e.store.ListProperties(ctx, store.PropertyFilter{
		Status:           models.PropertyApproved,
		LocationContains: query,
	})
	if err != nil {
		return nil, fail("search properties", err)
	}
	e.listings.Set(ctx, key, props)
	return props, nil
}

// ListByStatus lists listings in one status. The approved feed with
// excludeCaller set is open to every user and hides the caller's own
// listings; every other view is admin-only.
func (e *Engine) ListByStatus(ctx context.Context, caller *models.User, status models.PropertyStatus, excludeCaller bool) ([]models.Property, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	if !status.Valid() {
		return nil, apperr.Validation("Unknown property status")
	}
	public := status == models.PropertyApproved && excludeCaller
	if !public {
		if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
			return nil, err
		}
	}

	filter := store.PropertyFilter{Status: status}
	if excludeCaller {
		filter.ExcludeOwner = caller.ID
	}
	cacheable := status == models.PropertyApproved
	key := cache.ListingKey(string(status), filter.ExcludeOwner, nil)
	if cacheable {
		var cached []models.Property
		if e.listings.Get(ctx, key, &cached) {
			return cached, nil
		}
	}
	props, err := e.store.ListProperties(ctx, filter)
	if err != nil {
		return nil, fail("list properties", err)
	}
	if cacheable {
		e.listings.Set(ctx, key, props)
	}
	return props, nil
}

// ModerateProperty applies an admin action. Admins may force any status,
// including re-applying the current one.
func (e *Engine) ModerateProperty(ctx context.Context, caller *models.User, id string, action PropertyAction) (*models.Property, error) {
	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	property, err := e.store.GetProperty(ctx, id)
	if err != nil {
		return nil, notFound("get property", "Property not found", err)
	}
	next, err := NextPropertyStatus(property.Status, action)
	if err != nil {
		return nil, err
	}
	updated, err := e.store.SetPropertyStatus(ctx, id, next)
	if err != nil {
		return nil, notFound("set property status", "Property not found", err)
	}
	e.invalidateListings(ctx)
	e.logger.Info("property moderated",
		"property_id", id,
		"action", action,
		"from", property.Status,
		"to", next,
		"admin_id", caller.ID,
	)
	return updated, nil
}
