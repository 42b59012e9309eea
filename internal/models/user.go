// Package models defines the persistent domain entities and application errors.
package models

import "time"

// User is the local account linked to an identity provider subject.
type User struct {
	ID           string        `gorm:"primaryKey;size:191" json:"id"`
	Email        string        `gorm:"size:320;not null" json:"email"`
	FirstName    string        `gorm:"size:120" json:"first_name"`
	LastName     string        `gorm:"size:120" json:"last_name"`
	ProfileImage string        `gorm:"type:text" json:"profile_image,omitempty"`
	CustomerID   *string       `gorm:"size:191;uniqueIndex" json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Sites        []Site        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"sites,omitempty"`
	Posts        []Post        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
	Subscription *Subscription `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"subscription,omitempty"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// DisplayName is the name sent to the billing provider.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// HasCustomer reports whether a billing customer is linked.
func (u *User) HasCustomer() bool {
	return u.CustomerID != nil && *u.CustomerID != ""
}
