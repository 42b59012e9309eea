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

// SiteService creates, lists and removes a user's sites.
type SiteService struct {
	sites        repository.SiteRepository
	posts        repository.PostRepository
	entitlements *EntitlementChecker
	cache        BlogCache
}

func NewSiteService(
	sites repository.SiteRepository,
	posts repository.PostRepository,
	entitlements *EntitlementChecker,
	cache BlogCache,
) *SiteService {
	return &SiteService{
		sites:        sites,
		posts:        posts,
		entitlements: entitlements,
		cache:        cacheOrNoop(cache),
	}
}

// CreateSite applies the quota gate, validates the form and inserts the site.
func (s *SiteService) CreateSite(ctx context.Context, userID string, form validation.Form) (out Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "CreateSite", attribute.String("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	ent, err := s.entitlements.Check(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if !AllowSiteCreation(ent.SubscriptionActive, ent.SiteCount) {
		observability.QuotaDenials.Inc()
		middleware.Logger.InfoContext(ctx, "Site creation denied by quota", slog.Int64("site_count", ent.SiteCount))
		return Denied(PricingLocation), nil
	}

	in, errs, err := validation.ValidateSiteCreation(ctx, form, validation.SitePredicates{
		IsSubdirectoryUnique: s.isSubdirectoryUnique,
	})
	if err != nil {
		return Outcome{}, err
	}
	if !errs.Empty() {
		observability.ValidationFailures.WithLabelValues("site").Inc()
		return ValidationFailed(errs, form), nil
	}

	site := &models.Site{
		Name:         in.Name,
		Description:  in.Description,
		Subdirectory: in.Subdirectory,
		UserID:       userID,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			// Lost a race with another creation of the same subdirectory.
			return ValidationFailed(validation.FieldErrors{
				"subdirectory": {"Subdirectory is already taken"},
			}, form), nil
		}
		return Outcome{}, err
	}

	observability.SitesCreated.Inc()
	middleware.Logger.InfoContext(ctx, "Site created",
		slog.String("site_id", site.ID.String()), slog.String("subdirectory", site.Subdirectory))
	return Success(SitesLocation), nil
}

func (s *SiteService) isSubdirectoryUnique(ctx context.Context, subdirectory string) (bool, error) {
	exists, err := s.sites.ExistsBySubdirectory(ctx, subdirectory)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// UpdateImage sets the image of an owned site.
func (s *SiteService) UpdateImage(ctx context.Context, userID string, form validation.Form) (Outcome, error) {
	siteID, err := uuid.Parse(form.Get("siteId"))
	if err != nil {
		return Denied(SitesLocation), nil
	}
	back := SiteLocation(siteID.String())

	imageURL, errs := validation.ValidateImageUpdate(form)
	if !errs.Empty() {
		observability.ValidationFailures.WithLabelValues("site_image").Inc()
		return ValidationFailed(errs, form), nil
	}

	if err := s.sites.UpdateImage(ctx, siteID, userID, imageURL); err != nil {
		if models.IsNotFound(err) {
			warnNotOwned(ctx, "site", siteID)
			return Denied(back), nil
		}
		return Outcome{}, err
	}

	if site, err := s.sites.GetOwned(ctx, siteID, userID); err == nil {
		invalidateBlog(ctx, s.cache, site.Subdirectory)
	}
	return Success(back), nil
}

// DeleteSite removes an owned site and, through the cascade, its posts.
func (s *SiteService) DeleteSite(ctx context.Context, userID string, form validation.Form) (Outcome, error) {
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

	if err := s.sites.Delete(ctx, siteID, userID); err != nil {
		if models.IsNotFound(err) {
			warnNotOwned(ctx, "site", siteID)
			return Denied(SitesLocation), nil
		}
		return Outcome{}, err
	}

	invalidateBlog(ctx, s.cache, site.Subdirectory)
	middleware.Logger.InfoContext(ctx, "Site deleted", slog.String("site_id", siteID.String()))
	return Success(SitesLocation), nil
}

// ListSites returns the user's sites, newest first.
func (s *SiteService) ListSites(ctx context.Context, userID string) ([]models.Site, error) {
	return s.sites.ListByUser(ctx, userID, 0)
}

// SiteWithPosts is the dashboard view of one site.
type SiteWithPosts struct {
	Site  *models.Site  `json:"site"`
	Posts []models.Post `json:"posts"`
}

// GetSite returns an owned site with its posts, newest first.
func (s *SiteService) GetSite(ctx context.Context, userID string, siteID uuid.UUID) (*SiteWithPosts, error) {
	site, err := s.sites.GetOwned(ctx, siteID, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListBySite(ctx, siteID, userID)
	if err != nil {
		return nil, err
	}
	return &SiteWithPosts{Site: site, Posts: posts}, nil
}

func warnNotOwned(ctx context.Context, resource string, id uuid.UUID) {
	middleware.Logger.WarnContext(ctx, "Mutation matched no owned row",
		slog.String("resource", resource), slog.String("id", id.String()))
}
