package service

import (
	"context"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

var slugTaken = validation.FieldErrors{"slug": {"Slug is already used on this site"}}

// PostService writes articles. Every write is scoped to the calling user.
type PostService struct {
	posts repository.PostRepository
	sites repository.SiteRepository
	cache BlogCache
}

func NewPostService(posts repository.PostRepository, sites repository.SiteRepository, cache BlogCache) *PostService {
	return &PostService{posts: posts, sites: sites, cache: cacheOrNoop(cache)}
}

// CreatePost inserts an article on a site the user owns.
func (s *PostService) CreatePost(ctx context.Context, userID string, form validation.Form) (out Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "CreatePost", attribute.String("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	siteID, err := uuid.Parse(form.Get("siteId"))
	if err != nil {
		return Denied(SitesLocation), nil
	}
	site, err := s.sites.GetOwned(ctx, siteID, userID)
	if err != nil {
		if models.IsNotFound(err) {
			warnNotOwned(ctx, "site", siteID)
			return Denied(SitesLocation), nil
		}
		return Outcome{}, err
	}

	content, errs := validation.ValidatePost(form)
	if !errs.Empty() {
		observability.ValidationFailures.WithLabelValues("post").Inc()
		return ValidationFailed(errs, form), nil
	}

	post := &models.Post{
		Title:            content.Title,
		SmallDescription: content.SmallDescription,
		Slug:             content.Slug,
		ArticleContent:   content.ArticleContent,
		Image:            content.CoverImage,
		UserID:           userID,
		SiteID:           site.ID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		observability.PostMutations.WithLabelValues("create", "error").Inc()
		if models.HasCode(err, models.CodeConflict) {
			return ValidationFailed(slugTaken, form), nil
		}
		return Outcome{}, err
	}

	observability.PostMutations.WithLabelValues("create", "ok").Inc()
	invalidateBlog(ctx, s.cache, site.Subdirectory)
	return Success(SiteLocation(site.ID.String())), nil
}

// EditPost rewrites an owned article.
func (s *PostService) EditPost(ctx context.Context, userID string, form validation.Form) (Outcome, error) {
	back, postID, ok := postTarget(form)
	if !ok {
		return Denied(back), nil
	}

	content, errs := validation.ValidatePost(form)
	if !errs.Empty() {
		observability.ValidationFailures.WithLabelValues("post").Inc()
		return ValidationFailed(errs, form), nil
	}

	existing, err := s.posts.GetOwned(ctx, postID, userID)
	if err != nil {
		if models.IsNotFound(err) {
			warnNotOwned(ctx, "post", postID)
			observability.PostMutations.WithLabelValues("update", "denied").Inc()
			return Denied(back), nil
		}
		return Outcome{}, err
	}

	err = s.posts.Update(ctx, &models.Post{
		ID:               postID,
		UserID:           userID,
		Title:            content.Title,
		SmallDescription: content.SmallDescription,
		Slug:             content.Slug,
		ArticleContent:   content.ArticleContent,
		Image:            content.CoverImage,
	})
	switch {
	case models.IsNotFound(err):
		warnNotOwned(ctx, "post", postID)
		observability.PostMutations.WithLabelValues("update", "denied").Inc()
		return Denied(back), nil
	case models.HasCode(err, models.CodeConflict):
		return ValidationFailed(slugTaken, form), nil
	case err != nil:
		return Outcome{}, err
	}

	observability.PostMutations.WithLabelValues("update", "ok").Inc()
	s.invalidateSiteOf(ctx, existing, userID)
	return Success(back), nil
}

// DeletePost removes an owned article.
func (s *PostService) DeletePost(ctx context.Context, userID string, form validation.Form) (Outcome, error) {
	back, postID, ok := postTarget(form)
	if !ok {
		return Denied(back), nil
	}

	existing, err := s.posts.GetOwned(ctx, postID, userID)
	if err != nil {
		if models.IsNotFound(err) {
			warnNotOwned(ctx, "post", postID)
			observability.PostMutations.WithLabelValues("delete", "denied").Inc()
			return Denied(back), nil
		}
		return Outcome{}, err
	}

	if err := s.posts.Delete(ctx, postID, userID); err != nil {
		if models.IsNotFound(err) {
			warnNotOwned(ctx, "post", postID)
			observability.PostMutations.WithLabelValues("delete", "denied").Inc()
			return Denied(back), nil
		}
		return Outcome{}, err
	}

	observability.PostMutations.WithLabelValues("delete", "ok").Inc()
	s.invalidateSiteOf(ctx, existing, userID)
	return Success(back), nil
}

// GetPost returns an owned article of an owned site, for the edit form.
func (s *PostService) GetPost(ctx context.Context, userID string, siteID, postID uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetOwned(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.SiteID != siteID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

func (s *PostService) invalidateSiteOf(ctx context.Context, post *models.Post, userID string) {
	site, err := s.sites.GetOwned(ctx, post.SiteID, userID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Could not resolve site for cache invalidation",
			slog.String("site_id", post.SiteID.String()), slog.String("error", err.Error()))
		return
	}
	invalidateBlog(ctx, s.cache, site.Subdirectory)
}

// postTarget reads siteId and articleId. The redirect falls back to the
// sites list when siteId does not parse.
func postTarget(form validation.Form) (back string, postID uuid.UUID, ok bool) {
	siteID, err := uuid.Parse(form.Get("siteId"))
	if err != nil {
		return SitesLocation, uuid.Nil, false
	}
	back = SiteLocation(siteID.String())
	postID, err = uuid.Parse(form.Get("articleId"))
	if err != nil {
		return back, uuid.Nil, false
	}
	return back, postID, true
}
