package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

func TestCreateContactRequestChecks(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "asha")
	buyer := f.user(t, "bilal")
	p := f.approved(t, owner, "Pune")

	_, err := f.engine.CreateContactRequest(f.ctx, buyer, "missing")
	assertKind(t, apperr.KindNotFound, err)

	_, err = f.engine.CreateContactRequest(f.ctx, owner, p.ID)
	assertKind(t, apperr.KindInvalidOperation, err)

	r, err := f.engine.CreateContactRequest(f.ctx, buyer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, r.Status)
	assert.Equal(t, owner.ID, r.OwnerUserID)
	assert.Equal(t, buyer.ID, r.InterestedUserID)

	_, err = f.engine.CreateContactRequest(f.ctx, buyer, p.ID)
	assertKind(t, apperr.KindConflict, err)

	all, err := f.store.ListContactRequests(f.ctx, store.ContactRequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDealLifecycle(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "asha")
	b := f.user(t, "bilal")
	admin := f.admin(t)

	x := f.property(t, a, "Pune")
	assert.Equal(t, models.PropertyPending, x.Status)

	got, err := f.engine.ModerateProperty(f.ctx, admin, x.ID, PropertyApprove)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyApproved, got.Status)

	r, err := f.engine.CreateContactRequest(f.ctx, b, x.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, r.Status)

	_, err = f.engine.TransitionContactRequest(f.ctx, b, r.ID, RequestDealDone)
	assertKind(t, apperr.KindForbidden, err)

	done, err := f.engine.TransitionContactRequest(f.ctx, a, r.ID, RequestDealDone)
	require.NoError(t, err)
	assert.Equal(t, models.RequestDealDone, done.Status)

	x2, err := f.store.GetProperty(f.ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyCompleted, x2.Status)

	_, err = f.engine.UpdateProperty(f.ctx, a, x.ID, models.PropertyInput{Title: "t", Location: "Pune", Price: 1, Images: []string{pngImage}})
	assertKind(t, apperr.KindConflict, err)
	assert.Equal(t, 400, apperr.Status(err))

	_, err = f.engine.CreateContactRequest(f.ctx, b, x.ID)
	assertKind(t, apperr.KindConflict, err)
	n, err := f.store.ListContactRequests(f.ctx, store.ContactRequestFilter{InterestedUser: b.ID})
	require.NoError(t, err)
	assert.Len(t, n, 1)
}

func TestDealDoneAlwaysCompletesProperty(t *testing.T) {
	for _, start := range []models.PropertyStatus{
		models.PropertyPending,
		models.PropertyApproved,
		models.PropertyRejected,
		models.PropertyCompleted,
	} {
		t.Run(string(start), func(t *testing.T) {
			f := newFixture(t)
			owner := f.user(t, "asha")
			buyer := f.user(t, "bilal")
			p := f.property(t, owner, "Pune")
			r, err := f.engine.CreateContactRequest(f.ctx, buyer, p.ID)
			require.NoError(t, err)
			_, err = f.store.SetPropertyStatus(f.ctx, p.ID, start)
			require.NoError(t, err)

			_, err = f.engine.TransitionContactRequest(f.ctx, f.admin(t), r.ID, RequestDealDone)
			require.NoError(t, err)

			got, err := f.store.GetProperty(f.ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PropertyCompleted, got.Status)
		})
	}
}

// nonTxStore runs transactions as plain calls, the way mongostore does
// without a replica set, and fails every request status write.
type nonTxStore struct {
	store.Store
}

func (nonTxStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nonTxStore) SetContactRequestStatus(context.Context, string, models.RequestStatus) (*models.ContactRequest, error) {
	return nil, errors.New("write failed")
}

func TestDealDoneLeavesPropertyWhenRequestWriteFails(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "asha")
	buyer := f.user(t, "bilal")
	p := f.approved(t, owner, "Pune")
	r, err := f.engine.CreateContactRequest(f.ctx, buyer, p.ID)
	require.NoError(t, err)

	engine := New(nonTxStore{Store: f.store})
	_, err = engine.TransitionContactRequest(f.ctx, owner, r.ID, RequestDealDone)
	assertKind(t, apperr.KindUnexpected, err)

	prop, err := f.store.GetProperty(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyApproved, prop.Status)
	req, err := f.store.GetContactRequest(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
}

func TestRequestTransitionRules(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "asha")
	buyer := f.user(t, "bilal")
	p := f.approved(t, owner, "Pune")
	r, err := f.engine.CreateContactRequest(f.ctx, buyer, p.ID)
	require.NoError(t, err)

	got, err := f.engine.TransitionContactRequest(f.ctx, owner, r.ID, RequestNotInterested)
	require.NoError(t, err)
	assert.Equal(t, models.RequestNotInterested, got.Status)

	_, err = f.engine.TransitionContactRequest(f.ctx, owner, r.ID, RequestDealDone)
	assertKind(t, apperr.KindInvalidOperation, err)

	got, err = f.engine.TransitionContactRequest(f.ctx, owner, r.ID, RequestSetPending)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)

	prop, err := f.store.GetProperty(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyApproved, prop.Status)

	_, err = f.engine.TransitionContactRequest(f.ctx, owner, "missing", RequestSetPending)
	assertKind(t, apperr.KindNotFound, err)
}

func TestDeleteContactRequestOnlyByRequester(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "asha")
	buyer := f.user(t, "bilal")
	admin := f.admin(t)
	p := f.approved(t, owner, "Pune")
	r, err := f.engine.CreateContactRequest(f.ctx, buyer, p.ID)
	require.NoError(t, err)

	assertKind(t, apperr.KindForbidden, f.engine.DeleteContactRequest(f.ctx, owner, r.ID))
	assertKind(t, apperr.KindForbidden, f.engine.DeleteContactRequest(f.ctx, admin, r.ID))
	require.NoError(t, f.engine.DeleteContactRequest(f.ctx, buyer, r.ID))
	assertKind(t, apperr.KindNotFound, f.engine.DeleteContactRequest(f.ctx, buyer, r.ID))
}

func TestContactRequestViews(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "asha")
	buyer := f.user(t, "bilal")
	admin := f.admin(t)
	p1 := f.approved(t, owner, "Pune")
	p2 := f.approved(t, owner, "Goa")

	r1, err := f.engine.CreateContactRequest(f.ctx, buyer, p1.ID)
	require.NoError(t, err)
	r2, err := f.engine.CreateContactRequest(f.ctx, buyer, p2.ID)
	require.NoError(t, err)

	adminViews, err := f.engine.ListContactRequests(f.ctx, admin, models.RequestPending)
	require.NoError(t, err)
	require.Len(t, adminViews, 2)
	for _, v := range adminViews {
		require.NotNil(t, v.Property)
		require.NotNil(t, v.InterestedUser)
		require.NotNil(t, v.Owner)
		assert.Equal(t, buyer.Email, v.InterestedUser.Email)
		assert.Equal(t, owner.FullName, v.Owner.FullName)
	}

	_, err = f.engine.ListContactRequests(f.ctx, buyer, models.RequestPending)
	assertKind(t, apperr.KindForbidden, err)

	mine, err := f.engine.MyContactRequests(f.ctx, buyer, models.RequestPending)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Nil(t, mine[0].InterestedUser)

	none, err := f.engine.MyContactRequests(f.ctx, owner, models.RequestPending)
	require.NoError(t, err)
	assert.Empty(t, none)

	// A listing removed behind the engine's back drops out of my-interest.
	require.NoError(t, f.store.DeleteProperty(f.ctx, p2.ID))
	interest, err := f.engine.MyInterest(f.ctx, buyer)
	require.NoError(t, err)
	require.Len(t, interest, 1)
	assert.Equal(t, r1.ID, interest[0].RequestID)
	assert.Equal(t, p1.ID, interest[0].ID)

	views, err := f.engine.MyContactRequests(f.ctx, buyer, models.RequestPending)
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == r2.ID {
			assert.Nil(t, v.Property)
		}
	}
}
