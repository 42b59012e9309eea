package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository reads and writes the billing mirror of a user's plan.
type SubscriptionRepository interface {
	// GetByUserID returns nil, nil when the user never subscribed.
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

// Upsert keeps one row per user. An event for another Stripe subscription
// replaces the row only when its period ends no earlier than the stored one,
// so a late event for a replaced subscription is dropped.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		Where: clause.Where{Exprs: []clause.Expression{clause.Or(
			clause.Expr{SQL: "subscriptions.stripe_subscription_id = excluded.stripe_subscription_id"},
			clause.Expr{SQL: "excluded.current_period_end >= subscriptions.current_period_end"},
		)}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_subscription_id",
			"status",
			"plan_id",
			"interval",
			"current_period_start",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
