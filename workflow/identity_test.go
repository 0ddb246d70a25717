package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

func TestRegisterRejectsDuplicateEmailOrMobile(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "asha")
	assert.Equal(t, models.RoleUser, a.Role)
	assert.NotEqual(t, "secret-asha", a.Password)

	_, err := f.engine.Register(f.ctx, Registration{FullName: "x", Email: "ASHA@example.com", MobileNumber: "9", Password: "p"})
	assertKind(t, apperr.KindDuplicate, err)

	_, err = f.engine.Register(f.ctx, Registration{FullName: "x", Email: "new@example.com", MobileNumber: "+91-asha", Password: "p"})
	assertKind(t, apperr.KindDuplicate, err)

	_, err = f.engine.Register(f.ctx, Registration{FullName: "x", Email: "new@example.com"})
	assertKind(t, apperr.KindValidation, err)
}

func TestAuthenticateByEmailOrMobile(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "asha")

	for _, identifier := range []string{"asha@example.com", "Asha@Example.com", "+91-asha"} {
		got, err := f.engine.Authenticate(f.ctx, identifier, "secret-asha")
		require.NoError(t, err, identifier)
		assert.Equal(t, a.ID, got.ID)
	}

	_, err := f.engine.Authenticate(f.ctx, "asha@example.com", "wrong")
	assertKind(t, apperr.KindInvalidCredentials, err)
	_, err = f.engine.Authenticate(f.ctx, "nobody@example.com", "secret-asha")
	assertKind(t, apperr.KindInvalidCredentials, err)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	f.user(t, "asha")

	require.NoError(t, f.engine.ResetPassword(f.ctx, "+91-asha", "fresh"))
	_, err := f.engine.Authenticate(f.ctx, "asha@example.com", "fresh")
	require.NoError(t, err)

	assertKind(t, apperr.KindNotFound, f.engine.ResetPassword(f.ctx, "ghost@example.com", "fresh"))

	disabled := New(f.store, WithPasswordReset(false))
	assertKind(t, apperr.KindForbidden, disabled.ResetPassword(f.ctx, "+91-asha", "again"))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "asha")
	f.user(t, "bilal")

	_, err := f.engine.UpdateProfile(f.ctx, a, ProfileUpdate{FullName: "Asha K", CurrentPassword: "nope"})
	assertKind(t, apperr.KindInvalidCredentials, err)

	_, err = f.engine.UpdateProfile(f.ctx, a, ProfileUpdate{Email: "bilal@example.com", CurrentPassword: "secret-asha"})
	assertKind(t, apperr.KindDuplicate, err)

	got, err := f.engine.UpdateProfile(f.ctx, a, ProfileUpdate{FullName: "Asha K", CurrentPassword: "secret-asha"})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.FullName)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.Equal(t, "+91-asha", got.MobileNumber)
}

func TestEnsureAdminPromotesExistingUser(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "asha")

	got, created, err := f.engine.EnsureAdmin(f.ctx, Registration{Email: "asha@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, got.IsAdmin())

	admin := f.admin(t)
	assert.True(t, admin.IsAdmin())
	users, err := f.engine.ListUsers(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.engine.ListUsers(f.ctx, f.user(t, "chen"))
	assertKind(t, apperr.KindForbidden, err)
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "asha")
	other := f.user(t, "bilal")
	third := f.user(t, "chen")

	own := f.approved(t, u, "Pune")
	theirs := f.approved(t, other, "Goa")
	untouched := f.approved(t, other, "Delhi")

	_, err := f.engine.CreateContactRequest(f.ctx, other, own.ID)
	require.NoError(t, err)
	_, err = f.engine.CreateContactRequest(f.ctx, third, own.ID)
	require.NoError(t, err)
	_, err = f.engine.CreateContactRequest(f.ctx, u, theirs.ID)
	require.NoError(t, err)
	survivor, err := f.engine.CreateContactRequest(f.ctx, third, untouched.ID)
	require.NoError(t, err)

	before := f.listings.invalidated
	require.NoError(t, f.engine.DeleteAccount(f.ctx, u))
	assert.Greater(t, f.listings.invalidated, before)

	_, err = f.store.GetUser(f.ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	owned, err := f.store.ListProperties(f.ctx, store.PropertyFilter{Owner: u.ID})
	require.NoError(t, err)
	assert.Empty(t, owned)

	remaining, err := f.store.ListContactRequests(f.ctx, store.ContactRequestFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, survivor.ID, remaining[0].ID)
	for _, r := range remaining {
		assert.NotEqual(t, u.ID, r.InterestedUserID)
		assert.NotEqual(t, u.ID, r.OwnerUserID)
		assert.NotEqual(t, own.ID, r.PropertyID)
	}

	assertKind(t, apperr.KindNotFound, f.engine.DeleteAccount(f.ctx, u))
}
