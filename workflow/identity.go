package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
	"github.com/deep-dholariya/backend/utils"
)

type Registration struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password"`
}

func (r Registration) normalize() Registration {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.MobileNumber = strings.TrimSpace(r.MobileNumber)
	return r
}

func (r Registration) validate() error {
	if r.FullName == "" || r.Email == "" || r.MobileNumber == "" || r.Password == "" {
		return apperr.Validation("All fields are required")
	}
	return nil
}

// ProfileUpdate carries the editable account fields. Empty fields keep the
// stored value; CurrentPassword must always match.
type ProfileUpdate struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobileNumber"`
	Password        string `json:"password"`
	CurrentPassword string `json:"currentPassword"`
}

func hashPassword(password string) (string, error) {
	hashed, err := utils.HashPassword(password)
	if utils.IsPasswordTooLong(err) {
		return "", apperr.Validation("Password is too long")
	}
	if err != nil {
		return "", fail("hash password", err)
	}
	return hashed, nil
}

func (e *Engine) Register(ctx context.Context, in Registration) (*models.User, error) {
	return e.register(ctx, in, models.RoleUser)
}

func (e *Engine) register(ctx context.Context, in Registration, role models.Role) (*models.User, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	_, err := e.store.FindUserByEmailOrMobile(ctx, in.Email, in.MobileNumber)
	if err == nil {
		return nil, apperr.Duplicate("Email or mobile already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fail("find user", err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		MobileNumber: in.MobileNumber,
		Password:     hashed,
		Role:         role,
	}
	if err := e.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Duplicate("Email or mobile already exists")
		}
		return nil, fail("create user", err)
	}
	e.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// EnsureAdmin creates an admin account, or promotes the account already
// holding the email. The bool reports whether a new account was created.
func (e *Engine) EnsureAdmin(ctx context.Context, in Registration) (*models.User, bool, error) {
	in = in.normalize()
	existing, err := e.store.FindUserByIdentifier(ctx, in.Email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, false, nil
		}
		existing.Role = models.RoleAdmin
		if err := e.store.UpdateUser(ctx, existing); err != nil {
			return nil, false, fail("promote user", err)
		}
		e.logger.Info("user promoted to admin", "user_id", existing.ID)
		return existing, false, nil
	case errors.Is(err, store.ErrNotFound):
		user, err := e.register(ctx, in, models.RoleAdmin)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	default:
		return nil, false, fail("find user", err)
	}
}

// Authenticate matches identifier against email or mobile number.
func (e *Engine) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.InvalidCredentials("Invalid credentials")
	}
	user, err := e.findByIdentifier(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.InvalidCredentials("Invalid credentials")
	}
	if err != nil {
		return nil, fail("find user", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperr.InvalidCredentials("Invalid credentials")
	}
	return user, nil
}

// findByIdentifier retries a lowercased lookup so emails match regardless of
// case while mobile numbers stay exact.
func (e *Engine) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := e.store.FindUserByIdentifier(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) && strings.Contains(identifier, "@") {
		if lower := strings.ToLower(identifier); lower != identifier {
			return e.store.FindUserByIdentifier(ctx, lower)
		}
	}
	return user, err
}

// ResetPassword sets a new password from the identifier alone. It can be
// switched off with WithPasswordReset(false).
func (e *Engine) ResetPassword(ctx context.Context, identifier, newPassword string) error {
	if !e.passwordReset {
		return apperr.Forbidden("Password reset is disabled")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || newPassword == "" {
		return apperr.Validation("Identifier and new password are required")
	}
	user, err := e.findByIdentifier(ctx, identifier)
	if err != nil {
		return notFound("find user", "User not found", err)
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := e.store.UpdateUser(ctx, user); err != nil {
		return fail("update password", err)
	}
	e.logger.Info("password reset", "user_id", user.ID)
	return nil
}

func (e *Engine) UpdateProfile(ctx context.Context, caller *models.User, in ProfileUpdate) (*models.User, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	user, err := e.store.GetUser(ctx, caller.ID)
	if err != nil {
		return nil, notFound("get user", "User not found", err)
	}
	if in.CurrentPassword == "" || !utils.CheckPasswordHash(in.CurrentPassword, user.Password) {
		return nil, apperr.InvalidCredentials("Wrong password")
	}

	if v := strings.TrimSpace(in.FullName); v != "" {
		user.FullName = v
	}
	if v := strings.ToLower(strings.TrimSpace(in.Email)); v != "" {
		user.Email = v
	}
	if v := strings.TrimSpace(in.MobileNumber); v != "" {
		user.MobileNumber = v
	}
	if in.Password != "" {
		hashed, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := e.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Duplicate("Email or mobile already exists")
		}
		return nil, fail("update user", err)
	}
	return user, nil
}

// DeleteAccount removes the caller with everything that references them:
// requests on their listings or involving them, then the listings, then the
// account. The order keeps the store free of dangling references even when
// the backend cannot run the steps as one transaction.
func (e *Engine) DeleteAccount(ctx context.Context, caller *models.User) error {
	if caller == nil {
		return apperr.Unauthenticated("Not authenticated")
	}
	var removedRequests, removedProperties int64
	err := e.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetUser(ctx, caller.ID); err != nil {
			return notFound("get user", "User not found", err)
		}
		owned, err := e.store.ListProperties(ctx, store.PropertyFilter{Owner: caller.ID})
		if err != nil {
			return fail("list owned properties", err)
		}
		ids := make([]string, 0, len(owned))
		for _, p := range owned {
			ids = append(ids, p.ID)
		}

		removedRequests, err = e.store.DeleteContactRequests(ctx, store.ContactRequestPurge{PropertyIDs: ids, User: caller.ID})
		if err != nil {
			return fail("delete contact requests", err)
		}
		removedProperties, err = e.store.DeletePropertiesByOwner(ctx, caller.ID)
		if err != nil {
			return fail("delete properties", err)
		}
		if err := e.store.DeleteUser(ctx, caller.ID); err != nil {
			return notFound("delete user", "User not found", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.invalidateListings(ctx)
	e.logger.Info("account deleted",
		"user_id", caller.ID,
		"properties", removedProperties,
		"contact_requests", removedRequests,
	)
	return nil
}

func (e *Engine) ListUsers(ctx context.Context, caller *models.User) ([]models.User, error) {
	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := e.store.ListUsers(ctx, store.UserFilter{})
	if err != nil {
		return nil, fail("list users", err)
	}
	return users, nil
}
