package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// Update rewrites the editable columns of a post owned by post.UserID.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	ListBySite(ctx context.Context, siteID uuid.UUID, userID string) ([]models.Post, error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.Post, error)
	GetOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Post, error)
	GetBySiteAndSlug(ctx context.Context, siteID uuid.UUID, slug string) (*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("slug is already used on this site", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()

	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND user_id = ?", post.ID, post.UserID).
		Updates(map[string]interface{}{
			"title":             post.Title,
			"small_description": post.SmallDescription,
			"slug":              post.Slug,
			"article_content":   post.ArticleContent,
			"image":             post.Image,
		})
	if res.Error != nil && isUniqueConstraintError(res.Error) {
		return models.NewConflictError("slug is already used on this site", res.Error)
	}
	return affectedOne(res, "Post", post.ID)
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	defer observability.TrackQuery("delete", "posts")()

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Post{})
	return affectedOne(res, "Post", id)
}

func (r *postRepository) ListBySite(ctx context.Context, siteID uuid.UUID, userID string) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND user_id = ?", siteID, userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 3
	}
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) GetOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&post).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetBySiteAndSlug(ctx context.Context, siteID uuid.UUID, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND slug = ?", siteID, slug).
		First(&post).Error; err != nil {
		return nil, notFoundOr(err, "Post", slug)
	}
	return &post, nil
}
