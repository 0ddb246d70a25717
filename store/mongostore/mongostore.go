// Package mongostore keeps users, properties and contact requests in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

const (
	UserCollection           = "users"
	PropertyCollection       = "properties"
	ContactRequestCollection = "contactrequests"
)

type Store struct {
	store.Lifecycle

	client       *mongo.Client
	users        *mongo.Collection
	properties   *mongo.Collection
	requests     *mongo.Collection
	transactions bool
	logger       *slog.Logger
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithTransactions runs RunInTx inside a multi-document transaction. The
// deployment must be a replica set or sharded cluster.
func WithTransactions(enabled bool) Option {
	return func(s *Store) { s.transactions = enabled }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps a connected client. The store owns the client from here on and
// disconnects it on Close.
func New(client *mongo.Client, dbName string, opts ...Option) *Store {
	db := client.Database(dbName)
	s := &Store{
		client:     client,
		users:      db.Collection(UserCollection),
		properties: db.Collection(PropertyCollection),
		requests:   db.Collection(ContactRequestCollection),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}
	if err := s.Open(); err != nil {
		return err
	}
	s.logger.Info("mongo store ready", "transactions", s.transactions)
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "mobileNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.properties, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{s.requests, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "propertyId", Value: 1}, {Key: "interestedUserId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "ownerUserId", Value: 1}}},
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if !s.Shut() {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("closing MongoDB connection: %w", err)
	}
	s.logger.Info("MongoDB connection closed")
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Ready(); err != nil {
		return err
	}
	if !s.transactions {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

func now() time.Time {
	return time.Now().UTC()
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.Ready(); err != nil {
		return err
	}
	t := now()
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		FullName:     user.FullName,
		Email:        user.Email,
		MobileNumber: user.MobileNumber,
		Password:     user.Password,
		Role:         string(user.Role),
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	*user = *doc.model()
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.FindUserByEmailOrMobile(ctx, identifier, identifier)
}

func (s *Store) FindUserByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if mobile != "" {
		or = append(or, bson.M{"mobileNumber": mobile})
	}
	if len(or) == 0 {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"$or": or})
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.Ready(); err != nil {
		return err
	}
	oid, err := objectID(user.ID)
	if err != nil {
		return err
	}
	t := now()
	update := bson.M{"$set": bson.M{
		"fullName":     user.FullName,
		"email":        user.Email,
		"mobileNumber": user.MobileNumber,
		"password":     user.Password,
		"role":         string(user.Role),
		"updatedAt":    t,
	}}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	user.UpdatedAt = t
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter store.UserFilter) ([]models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	query := bson.M{}
	if filter.IDs != nil {
		query["_id"] = bson.M{"$in": objectIDs(filter.IDs)}
	}
	cursor, err := s.users.Find(ctx, query, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].model())
	}
	return users, nil
}

// Properties

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	if err := s.Ready(); err != nil {
		return err
	}
	owner, err := objectID(property.UserID)
	if err != nil {
		return fmt.Errorf("property owner %q: %w", property.UserID, err)
	}
	t := now()
	doc := propertyDoc{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Title:     property.Title,
		Location:  property.Location,
		Price:     property.Price,
		Images:    property.Images,
		Status:    string(property.Status),
		CreatedAt: t,
		UpdatedAt: t,
	}
	if _, err := s.properties.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	*property = *doc.model()
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc propertyDoc
	if err := s.properties.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) UpdateProperty(ctx context.Context, property *models.Property) error {
	if err := s.Ready(); err != nil {
		return err
	}
	oid, err := objectID(property.ID)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"title":     property.Title,
		"location":  property.Location,
		"price":     property.Price,
		"images":    property.Images,
		"status":    string(property.Status),
		"updatedAt": now(),
	}}
	var doc propertyDoc
	err = s.properties.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return translate(err)
	}
	*property = *doc.model()
	return nil
}

func (s *Store) SetPropertyStatus(ctx context.Context, id string, status models.PropertyStatus) (*models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": now()}}
	var doc propertyDoc
	err = s.properties.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.properties.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePropertiesByOwner(ctx context.Context, owner string) (int64, error) {
	if err := s.Ready(); err != nil {
		return 0, err
	}
	oid, err := objectID(owner)
	if err != nil {
		return 0, nil
	}
	res, err := s.properties.DeleteMany(ctx, bson.M{"userId": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) ListProperties(ctx context.Context, filter store.PropertyFilter) ([]models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	query := bson.M{}
	if filter.IDs != nil {
		query["_id"] = bson.M{"$in": objectIDs(filter.IDs)}
	}
	userCond := bson.M{}
	if filter.Owner != "" {
		oid, err := objectID(filter.Owner)
		if err != nil {
			return []models.Property{}, nil
		}
		userCond["$eq"] = oid
	}
	if filter.ExcludeOwner != "" {
		if oid, err := objectID(filter.ExcludeOwner); err == nil {
			userCond["$ne"] = oid
		}
	}
	if len(userCond) > 0 {
		query["userId"] = userCond
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.LocationContains != "" {
		query["location"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(filter.LocationContains), Options: "i"}}
	}

	cursor, err := s.properties.Find(ctx, query, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []propertyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	properties := make([]models.Property, 0, len(docs))
	for i := range docs {
		properties = append(properties, *docs[i].model())
	}
	return properties, nil
}

// Contact requests

func (s *Store) CreateContactRequest(ctx context.Context, request *models.ContactRequest) error {
	if err := s.Ready(); err != nil {
		return err
	}
	propertyID, err := objectID(request.PropertyID)
	if err != nil {
		return err
	}
	interested, err := objectID(request.InterestedUserID)
	if err != nil {
		return err
	}
	owner, err := objectID(request.OwnerUserID)
	if err != nil {
		return err
	}
	t := now()
	doc := contactRequestDoc{
		ID:               primitive.NewObjectID(),
		PropertyID:       propertyID,
		InterestedUserID: interested,
		OwnerUserID:      owner,
		Status:           string(request.Status),
		CreatedAt:        t,
		UpdatedAt:        t,
	}
	if _, err := s.requests.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	*request = *doc.model()
	return nil
}

func (s *Store) findRequest(ctx context.Context, filter bson.M) (*models.ContactRequest, error) {
	var doc contactRequestDoc
	if err := s.requests.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) GetContactRequest(ctx context.Context, id string) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findRequest(ctx, bson.M{"_id": oid})
}

func (s *Store) FindContactRequest(ctx context.Context, propertyID, interestedUserID string) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	pid, err := objectID(propertyID)
	if err != nil {
		return nil, err
	}
	uid, err := objectID(interestedUserID)
	if err != nil {
		return nil, err
	}
	return s.findRequest(ctx, bson.M{"propertyId": pid, "interestedUserId": uid})
}

func (s *Store) SetContactRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": now()}}
	var doc contactRequestDoc
	err = s.requests.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) DeleteContactRequest(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.requests.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteContactRequests(ctx context.Context, purge store.ContactRequestPurge) (int64, error) {
	if err := s.Ready(); err != nil {
		return 0, err
	}
	var or bson.A
	if ids := objectIDs(purge.PropertyIDs); len(ids) > 0 {
		or = append(or, bson.M{"propertyId": bson.M{"$in": ids}})
	}
	if purge.User != "" {
		if uid, err := objectID(purge.User); err == nil {
			or = append(or, bson.M{"interestedUserId": uid}, bson.M{"ownerUserId": uid})
		}
	}
	if len(or) == 0 {
		return 0, nil
	}
	res, err := s.requests.DeleteMany(ctx, bson.M{"$or": or})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) ListContactRequests(ctx context.Context, filter store.ContactRequestFilter) ([]models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.InterestedUser != "" {
		uid, err := objectID(filter.InterestedUser)
		if err != nil {
			return []models.ContactRequest{}, nil
		}
		query["interestedUserId"] = uid
	}
	cursor, err := s.requests.Find(ctx, query, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []contactRequestDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	requests := make([]models.ContactRequest, 0, len(docs))
	for i := range docs {
		requests = append(requests, *docs[i].model())
	}
	return requests, nil
}
