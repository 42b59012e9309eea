package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post is an article belonging to one site and one owning user.
type Post struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string         `gorm:"size:100;not null" json:"title"`
	SmallDescription string         `gorm:"size:190;not null" json:"small_description"`
	Slug             string         `gorm:"size:190;not null;uniqueIndex:idx_posts_site_slug" json:"slug"`
	ArticleContent   datatypes.JSON `json:"article_content"`
	Image            string         `gorm:"type:text;not null" json:"image"`
	UserID           string         `gorm:"size:191;not null;index" json:"user_id"`
	SiteID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_posts_site_slug" json:"site_id"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate assigns a random UUID when none was provided.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
