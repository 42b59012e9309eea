package models

import "time"

// SubscriptionStatusActive is the only status that lifts the site quota.
const SubscriptionStatusActive = "active"

// Subscription mirrors the Stripe subscription of a user. It is written by the
// billing webhook only.
type Subscription struct {
	StripeSubscriptionID string    `gorm:"primaryKey;size:191" json:"stripe_subscription_id"`
	UserID               string    `gorm:"size:191;not null;uniqueIndex" json:"user_id"`
	Status               string    `gorm:"size:40;not null" json:"status"`
	PlanID               string    `gorm:"size:191" json:"plan_id"`
	Interval             string    `gorm:"size:20" json:"interval"`
	CurrentPeriodStart   int64     `json:"current_period_start"`
	CurrentPeriodEnd     int64     `json:"current_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive reports whether the status is exactly "active".
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
