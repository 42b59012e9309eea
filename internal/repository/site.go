package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SiteRepository defines persistence operations for sites.
type SiteRepository interface {
	Create(ctx context.Context, site *models.Site) error
	ExistsBySubdirectory(ctx context.Context, subdirectory string) (bool, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	// ListByUser returns the user's sites newest first; limit <= 0 means all.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Site, error)
	GetOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Site, error)
	// GetBySubdirectory returns a site with its posts newest first.
	GetBySubdirectory(ctx context.Context, subdirectory string) (*models.Site, error)
	UpdateImage(ctx context.Context, id uuid.UUID, userID, imageURL string) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

type siteRepository struct {
	db *gorm.DB
}

// NewSiteRepository returns a new SiteRepository implementation.
func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &siteRepository{db: db}
}

func (r *siteRepository) Create(ctx context.Context, site *models.Site) error {
	defer observability.TrackQuery("insert", "sites")()

	if err := r.db.WithContext(ctx).Create(site).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("subdirectory is already taken", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *siteRepository) ExistsBySubdirectory(ctx context.Context, subdirectory string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Site{}).
		Where("subdirectory = ?", subdirectory).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *siteRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Site{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *siteRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Site, error) {
	defer observability.TrackQuery("select", "sites")()

	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	sites := []models.Site{}
	if err := q.Find(&sites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return sites, nil
}

func (r *siteRepository) GetOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Site, error) {
	var site models.Site
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&site).Error; err != nil {
		return nil, notFoundOr(err, "Site", id)
	}
	return &site, nil
}

func (r *siteRepository) GetBySubdirectory(ctx context.Context, subdirectory string) (*models.Site, error) {
	defer observability.TrackQuery("select", "sites")()

	var site models.Site
	err := r.db.WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("subdirectory = ?", subdirectory).
		First(&site).Error
	if err != nil {
		return nil, notFoundOr(err, "Site", subdirectory)
	}
	return &site, nil
}

func (r *siteRepository) UpdateImage(ctx context.Context, id uuid.UUID, userID, imageURL string) error {
	res := r.db.WithContext(ctx).Model(&models.Site{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("image_url", imageURL)
	return affectedOne(res, "Site", id)
}

// Delete removes an owned site. Its posts go with it through the foreign key cascade.
func (r *siteRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	defer observability.TrackQuery("delete", "sites")()

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Site{})
	return affectedOne(res, "Site", id)
}
