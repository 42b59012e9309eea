package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	// FirstOrCreate inserts user unless a row with the same id exists, then
	// returns the stored row and whether this call created it.
	FirstOrCreate(ctx context.Context, user *models.User) (*models.User, bool, error)
	// SetCustomerIDIfEmpty links a billing customer only when none is linked yet.
	SetCustomerIDIfEmpty(ctx context.Context, userID, customerID string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", customerID)
	}
	return &user, nil
}

func (r *userRepository) FirstOrCreate(ctx context.Context, user *models.User) (*models.User, bool, error) {
	defer observability.TrackQuery("upsert", "users")()

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return nil, false, models.NewInternalError(res.Error)
	}
	created := res.RowsAffected == 1

	stored, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *userRepository) SetCustomerIDIfEmpty(ctx context.Context, userID, customerID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND customer_id IS NULL", userID).
		Update("customer_id", customerID)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return false, models.NewConflictError("customer already linked to another user", res.Error)
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
