// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"testing"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with the full schema.
// A single connection serialises concurrent readers.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user with the given id.
func CreateUser(t testing.TB, db *gorm.DB, id string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Email: id + "@example.com", FirstName: "Test", LastName: id}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateSite inserts a site owned by userID.
func CreateSite(t testing.TB, db *gorm.DB, userID, subdirectory string) *models.Site {
	t.Helper()
	s := &models.Site{
		Name:         "Site " + subdirectory,
		Description:  "About " + subdirectory,
		Subdirectory: subdirectory,
		UserID:       userID,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// SampleArticle is a minimal valid document tree.
const SampleArticle = `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hello"}]}]}`

// CreatePost inserts a post on site owned by userID.
func CreatePost(t testing.TB, db *gorm.DB, userID string, siteID uuid.UUID, slug string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:            "Post " + slug,
		SmallDescription: "Summary of " + slug,
		Slug:             slug,
		ArticleContent:   datatypes.JSON(SampleArticle),
		Image:            "https://images.example.com/" + slug + ".png",
		UserID:           userID,
		SiteID:           siteID,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
