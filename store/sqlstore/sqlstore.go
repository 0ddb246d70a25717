// Package sqlstore is the relational backend, built on gorm. It runs against
// postgres in deployments and sqlite for local work and tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
)

type txKey struct{}

type Store struct {
	store.Lifecycle

	gdb    *gorm.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New wraps an opened gorm handle. Open it with TranslateError enabled so
// unique violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{gdb: db, logger: logger}
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.gdb.WithContext(ctx).AutoMigrate(&userRow{}, &propertyRow{}, &contactRequestRow{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	if err := s.backfillLocationFold(ctx); err != nil {
		return fmt.Errorf("backfilling location_fold: %w", err)
	}
	if err := s.Open(); err != nil {
		return err
	}
	s.logger.Info("sql store ready", "dialect", s.gdb.Dialector.Name())
	return nil
}

// backfillLocationFold fills location_fold for rows written before the
// column existed.
func (s *Store) backfillLocationFold(ctx context.Context) error {
	var rows []propertyRow
	return s.gdb.WithContext(ctx).
		Where("location_fold IS NULL OR (location_fold = '' AND location <> '')").
		FindInBatches(&rows, 200, func(tx *gorm.DB, _ int) error {
			for _, row := range rows {
				err := s.gdb.WithContext(ctx).Model(&propertyRow{}).
					Where("id = ?", row.ID).
					UpdateColumn("location_fold", strings.ToLower(row.Location)).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

func (s *Store) Close(ctx context.Context) error {
	if !s.Shut() {
		return nil
	}
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Ready(); err != nil {
		return err
	}
	if _, nested := ctx.Value(txKey{}).(*gorm.DB); nested {
		return fn(ctx)
	}
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx, if any.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.gdb.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return store.ErrDuplicate
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.Ready(); err != nil {
		return err
	}
	t := now()
	row := userRow{
		ID:           uuid.NewString(),
		FullName:     user.FullName,
		Email:        user.Email,
		MobileNumber: user.MobileNumber,
		Password:     user.Password,
		Role:         string(user.Role),
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}
	*user = *row.model()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var row userRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.FindUserByEmailOrMobile(ctx, identifier, identifier)
}

func (s *Store) FindUserByEmailOrMobile(ctx context.Context, email, mobile string) (*models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if email == "" && mobile == "" {
		return nil, store.ErrNotFound
	}
	q := s.conn(ctx)
	switch {
	case email != "" && mobile != "":
		q = q.Where("email = ? OR mobile_number = ?", email, mobile)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("mobile_number = ?", mobile)
	}
	var row userRow
	if err := q.Order("created_at ASC").First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.Ready(); err != nil {
		return err
	}
	t := now()
	res := s.conn(ctx).Model(&userRow{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"full_name":     user.FullName,
		"email":         user.Email,
		"mobile_number": user.MobileNumber,
		"password":      user.Password,
		"role":          string(user.Role),
		"updated_at":    t,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	user.UpdatedAt = t
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ?", id).Delete(&userRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter store.UserFilter) ([]models.User, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []models.User{}, nil
	}
	q := s.conn(ctx).Order("created_at DESC")
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].model())
	}
	return users, nil
}

// Properties

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	if err := s.Ready(); err != nil {
		return err
	}
	t := now()
	row := propertyRow{
		ID:           uuid.NewString(),
		UserID:       property.UserID,
		Title:        property.Title,
		Location:     property.Location,
		LocationFold: strings.ToLower(property.Location),
		Price:        property.Price,
		Images:       property.Images,
		Status:       string(property.Status),
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}
	*property = *row.model()
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var row propertyRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) UpdateProperty(ctx context.Context, property *models.Property) error {
	if err := s.Ready(); err != nil {
		return err
	}
	var row propertyRow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", property.ID).First(&row).Error; err != nil {
			return err
		}
		row.Title = property.Title
		row.Location = property.Location
		row.LocationFold = strings.ToLower(property.Location)
		row.Price = property.Price
		row.Images = property.Images
		row.Status = string(property.Status)
		row.UpdatedAt = now()
		return tx.Save(&row).Error
	})
	if err != nil {
		return translate(err)
	}
	*property = *row.model()
	return nil
}

func (s *Store) SetPropertyStatus(ctx context.Context, id string, status models.PropertyStatus) (*models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var row propertyRow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&propertyRow{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": string(status), "updated_at": now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ?", id).Delete(&propertyRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePropertiesByOwner(ctx context.Context, owner string) (int64, error) {
	if err := s.Ready(); err != nil {
		return 0, err
	}
	res := s.conn(ctx).Where("user_id = ?", owner).Delete(&propertyRow{})
	return res.RowsAffected, res.Error
}

func (s *Store) ListProperties(ctx context.Context, filter store.PropertyFilter) ([]models.Property, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []models.Property{}, nil
	}
	q := s.conn(ctx).Order("created_at DESC")
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.Owner != "" {
		q = q.Where("user_id = ?", filter.Owner)
	}
	if filter.ExcludeOwner != "" {
		q = q.Where("user_id <> ?", filter.ExcludeOwner)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.LocationContains != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.LocationContains)) + "%"
		q = q.Where(`location_fold LIKE ? ESCAPE '\'`, pattern)
	}
	var rows []propertyRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	properties := make([]models.Property, 0, len(rows))
	for i := range rows {
		properties = append(properties, *rows[i].model())
	}
	return properties, nil
}

// Contact requests

func (s *Store) CreateContactRequest(ctx context.Context, request *models.ContactRequest) error {
	if err := s.Ready(); err != nil {
		return err
	}
	t := now()
	row := contactRequestRow{
		ID:               uuid.NewString(),
		PropertyID:       request.PropertyID,
		InterestedUserID: request.InterestedUserID,
		OwnerUserID:      request.OwnerUserID,
		Status:           string(request.Status),
		CreatedAt:        t,
		UpdatedAt:        t,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}
	*request = *row.model()
	return nil
}

func (s *Store) GetContactRequest(ctx context.Context, id string) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var row contactRequestRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) FindContactRequest(ctx context.Context, propertyID, interestedUserID string) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var row contactRequestRow
	err := s.conn(ctx).
		Where("property_id = ? AND interested_user_id = ?", propertyID, interestedUserID).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) SetContactRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	var row contactRequestRow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&contactRequestRow{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": string(status), "updated_at": now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) DeleteContactRequest(ctx context.Context, id string) error {
	if err := s.Ready(); err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ?", id).Delete(&contactRequestRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteContactRequests(ctx context.Context, purge store.ContactRequestPurge) (int64, error) {
	if err := s.Ready(); err != nil {
		return 0, err
	}
	var (
		clauses []string
		args    []interface{}
	)
	if len(purge.PropertyIDs) > 0 {
		clauses = append(clauses, "property_id IN ?")
		args = append(args, purge.PropertyIDs)
	}
	if purge.User != "" {
		clauses = append(clauses, "interested_user_id = ?", "owner_user_id = ?")
		args = append(args, purge.User, purge.User)
	}
	if len(clauses) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Where(strings.Join(clauses, " OR "), args...).Delete(&contactRequestRow{})
	return res.RowsAffected, res.Error
}

func (s *Store) ListContactRequests(ctx context.Context, filter store.ContactRequestFilter) ([]models.ContactRequest, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	q := s.conn(ctx).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.InterestedUser != "" {
		q = q.Where("interested_user_id = ?", filter.InterestedUser)
	}
	var rows []contactRequestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	requests := make([]models.ContactRequest, 0, len(rows))
	for i := range rows {
		requests = append(requests, *rows[i].model())
	}
	return requests, nil
}
