package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site is a tenant blog, addressed publicly by its subdirectory.
type Site struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:35;not null" json:"name"`
	Description  string    `gorm:"size:150;not null" json:"description"`
	Subdirectory string    `gorm:"size:40;not null;uniqueIndex" json:"subdirectory"`
	ImageURL     *string   `gorm:"type:text" json:"image_url"`
	UserID       string    `gorm:"size:191;not null;index" json:"user_id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}

// TableName specifies the table name for GORM.
func (Site) TableName() string {
	return "sites"
}

// BeforeCreate assigns a random UUID when none was provided.
func (s *Site) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
