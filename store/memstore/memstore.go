// Package memstore is an in-process store.Store used by tests and the
// "memory" driver.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

type record[T any] struct {
	seq   uint64
	value T
}

type Store struct {
	store.Lifecycle

	mu       sync.RWMutex
	seq      uint64
	users    map[string]record[models.User]
	props    map[string]record[models.Property]
	requests map[string]record[models.ContactRequest]

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]record[models.User]),
		props:    make(map[string]record[models.Property]),
		requests: make(map[string]record[models.ContactRequest]),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Init(ctx context.Context) error {
	return s.Open()
}

func (s *Store) Close(ctx context.Context) error {
	s.Shut()
	return nil
}

type txKey struct{}

// RunInTx holds the write lock for the whole of fn, so other writers wait
// instead of interleaving, and restores the previous contents when fn fails.
// Store calls made with the ctx passed to fn run under that lock.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Ready(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, props, requests := cloneMap(s.users), cloneMap(s.props), cloneMap(s.requests)
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.users, s.props, s.requests = users, props, requests
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the write lock unless ctx already runs inside RunInTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func cloneMap[T any](m map[string]record[T]) map[string]record[T] {
	out := make(map[string]record[T], len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// newestFirst sorts by creation time, then insertion order.
func newestFirst[T any](records []record[T], created func(T) time.Time) []T {
	sort.Slice(records, func(i, j int) bool {
		ci, cj := created(records[i].value), created(records[j].value)
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return records[i].seq > records[j].seq
	})
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, r.value)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	if s.userTaken("", user.Email, user.MobileNumber) {
		return store.ErrDuplicate
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = record[models.User]{seq: s.nextSeq(), value: *user}
	return nil
}

// userTaken reports whether a user other than except holds email or mobile.
func (s *Store) userTaken(except, email, mobile string) bool {
	for id, r := range s.users {
		if id == except {
			continue
		}
		if (email != "" && r.value.Email == email) || (mobile != "" && r.value.MobileNumber == mobile) {
			return true
		}
	}
	return false
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	r, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user := r.value
	return &user, nil
}

func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.FindUserByEmailOrMobile(ctx, identifier, identifier)
}

func (s *Store) FindUserByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	var found []record[models.User]
	for _, r := range s.users {
		if (email != "" && r.value.Email == email) || (mobile != "" && r.value.MobileNumber == mobile) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })
	user := found[0].value
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	r, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.userTaken(user.ID, user.Email, user.MobileNumber) {
		return store.ErrDuplicate
	}
	user.CreatedAt = r.value.CreatedAt
	user.UpdatedAt = s.now()
	r.value = *user
	s.users[user.ID] = r
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter store.UserFilter) ([]models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	var matched []record[models.User]
	for id, r := range s.users {
		if filter.IDs != nil && !contains(filter.IDs, id) {
			continue
		}
		matched = append(matched, r)
	}
	return newestFirst(matched, func(u models.User) time.Time { return u.CreatedAt }), nil
}

// Properties

func copyProperty(p models.Property) *models.Property {
	p.Images = append([]string(nil), p.Images...)
	return &p
}

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	now := s.now()
	property.ID = uuid.NewString()
	property.CreatedAt, property.UpdatedAt = now, now
	s.props[property.ID] = record[models.Property]{seq: s.nextSeq(), value: *copyProperty(*property)}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	r, ok := s.props[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyProperty(r.value), nil
}

func (s *Store) UpdateProperty(ctx context.Context, property *models.Property) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	r, ok := s.props[property.ID]
	if !ok {
		return store.ErrNotFound
	}
	r.value.Title = property.Title
	r.value.Location = property.Location
	r.value.Price = property.Price
	r.value.Images = append([]string(nil), property.Images...)
	r.value.Status = property.Status
	r.value.UpdatedAt = s.now()
	s.props[property.ID] = r
	*property = *copyProperty(r.value)
	return nil
}

func (s *Store) SetPropertyStatus(ctx context.Context, id string, status models.PropertyStatus) (*models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.lock(ctx)()

	r, ok := s.props[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.value.Status = status
	r.value.UpdatedAt = s.now()
	s.props[id] = r
	return copyProperty(r.value), nil
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	if _, ok := s.props[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.props, id)
	return nil
}

func (s *Store) DeletePropertiesByOwner(ctx context.Context, owner string) (int64, error) {
	if err := s.Ready(); err != nil {
		return 0, err
	}
	defer s.lock(ctx)()

	var n int64
	for id, r := range s.props {
		if r.value.UserID == owner {
			delete(s.props, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ListProperties(ctx context.Context, filter store.PropertyFilter) ([]models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	needle := strings.ToLower(filter.LocationContains)
	var matched []record[models.Property]
	for id, r := range s.props {
		p := r.value
		switch {
		case filter.IDs != nil && !contains(filter.IDs, id):
			continue
		case filter.Owner != "" && p.UserID != filter.Owner:
			continue
		case filter.Status != "" && p.Status != filter.Status:
			continue
		case filter.ExcludeOwner != "" && p.UserID == filter.ExcludeOwner:
			continue
		case needle != "" && !strings.Contains(strings.ToLower(p.Location), needle):
			continue
		}
		matched = append(matched, record[models.Property]{seq: r.seq, value: *copyProperty(p)})
	}
	return newestFirst(matched, func(p models.Property) time.Time { return p.CreatedAt }), nil
}

// Contact requests

func (s *Store) CreateContactRequest(ctx context.Context, request *models.ContactRequest) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	for _, r := range s.requests {
		if r.value.PropertyID == request.PropertyID && r.value.InterestedUserID == request.InterestedUserID {
			return store.ErrDuplicate
		}
	}
	now := s.now()
	request.ID = uuid.NewString()
	request.CreatedAt, request.UpdatedAt = now, now
	s.requests[request.ID] = record[models.ContactRequest]{seq: s.nextSeq(), value: *request}
	return nil
}

func (s *Store) GetContactRequest(ctx context.Context, id string) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	r, ok := s.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	request := r.value
	return &request, nil
}

func (s *Store) FindContactRequest(ctx context.Context, propertyID, interestedUserID string) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	for _, r := range s.requests {
		if r.value.PropertyID == propertyID && r.value.InterestedUserID == interestedUserID {
			request := r.value
			return &request, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SetContactRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.lock(ctx)()

	r, ok := s.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.value.Status = status
	r.value.UpdatedAt = s.now()
	s.requests[id] = r
	request := r.value
	return &request, nil
}

func (s *Store) DeleteContactRequest(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	defer s.lock(ctx)()

	if _, ok := s.requests[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *Store) DeleteContactRequests(ctx context.Context, purge store.ContactRequestPurge) (int64, error) {
	if err := s.Ready(); err != nil {
		return 0, err
	}
	if purge.Empty() {
		return 0, nil
	}
	defer s.lock(ctx)()

	var n int64
	for id, r := range s.requests {
		v := r.value
		byProperty := contains(purge.PropertyIDs, v.PropertyID)
		byUser := purge.User != "" && (v.InterestedUserID == purge.User || v.OwnerUserID == purge.User)
		if byProperty || byUser {
			delete(s.requests, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ListContactRequests(ctx context.Context, filter store.ContactRequestFilter) ([]models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	defer s.rlock(ctx)()

	var matched []record[models.ContactRequest]
	for _, r := range s.requests {
		if filter.Status != "" && r.value.Status != filter.Status {
			continue
		}
		if filter.InterestedUser != "" && r.value.InterestedUserID != filter.InterestedUser {
			continue
		}
		matched = append(matched, r)
	}
	return newestFirst(matched, func(r models.ContactRequest) time.Time { return r.CreatedAt }), nil
}
