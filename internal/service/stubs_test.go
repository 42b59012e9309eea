package service

import (
	"context"
	"time"

	"inkwell/internal/billing"
	"inkwell/internal/models"

	"github.com/google/uuid"
)

// siteRepoStub is a stub for repository.SiteRepository. Unset funcs return zero values.
type siteRepoStub struct {
	createFn            func(context.Context, *models.Site) error
	existsFn            func(context.Context, string) (bool, error)
	countByUserFn       func(context.Context, string) (int64, error)
	listByUserFn        func(context.Context, string, int) ([]models.Site, error)
	getOwnedFn          func(context.Context, uuid.UUID, string) (*models.Site, error)
	getBySubdirectoryFn func(context.Context, string) (*models.Site, error)
	updateImageFn       func(context.Context, uuid.UUID, string, string) error
	deleteFn            func(context.Context, uuid.UUID, string) error

	created []*models.Site
}

func (s *siteRepoStub) Create(ctx context.Context, site *models.Site) error {
	s.created = append(s.created, site)
	if s.createFn != nil {
		return s.createFn(ctx, site)
	}
	return nil
}
func (s *siteRepoStub) ExistsBySubdirectory(ctx context.Context, sub string) (bool, error) {
	if s.existsFn != nil {
		return s.existsFn(ctx, sub)
	}
	return false, nil
}
func (s *siteRepoStub) CountByUser(ctx context.Context, userID string) (int64, error) {
	if s.countByUserFn != nil {
		return s.countByUserFn(ctx, userID)
	}
	return 0, nil
}
func (s *siteRepoStub) ListByUser(ctx context.Context, userID string, limit int) ([]models.Site, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}
func (s *siteRepoStub) GetOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Site, error) {
	if s.getOwnedFn != nil {
		return s.getOwnedFn(ctx, id, userID)
	}
	return nil, models.NewNotFoundError("Site", id)
}
func (s *siteRepoStub) GetBySubdirectory(ctx context.Context, sub string) (*models.Site, error) {
	if s.getBySubdirectoryFn != nil {
		return s.getBySubdirectoryFn(ctx, sub)
	}
	return nil, models.NewNotFoundError("Site", sub)
}
func (s *siteRepoStub) UpdateImage(ctx context.Context, id uuid.UUID, userID, url string) error {
	if s.updateImageFn != nil {
		return s.updateImageFn(ctx, id, userID, url)
	}
	return nil
}
func (s *siteRepoStub) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id, userID)
	}
	return nil
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn   func(context.Context, *models.Post) error
	updateFn   func(context.Context, *models.Post) error
	deleteFn   func(context.Context, uuid.UUID, string) error
	getOwnedFn func(context.Context, uuid.UUID, string) (*models.Post, error)

	created []*models.Post
	updated []*models.Post
	deleted []uuid.UUID
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	s.created = append(s.created, post)
	if s.createFn != nil {
		return s.createFn(ctx, post)
	}
	return nil
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	s.updated = append(s.updated, post)
	if s.updateFn != nil {
		return s.updateFn(ctx, post)
	}
	return nil
}
func (s *postRepoStub) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	s.deleted = append(s.deleted, id)
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id, userID)
	}
	return nil
}
func (s *postRepoStub) ListBySite(context.Context, uuid.UUID, string) ([]models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) ListRecentByUser(context.Context, string, int) ([]models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) GetOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Post, error) {
	if s.getOwnedFn != nil {
		return s.getOwnedFn(ctx, id, userID)
	}
	return nil, models.NewNotFoundError("Post", id)
}
func (s *postRepoStub) GetBySiteAndSlug(_ context.Context, _ uuid.UUID, slug string) (*models.Post, error) {
	return nil, models.NewNotFoundError("Post", slug)
}

// subRepoStub is a stub for repository.SubscriptionRepository.
type subRepoStub struct {
	getByUserIDFn func(context.Context, string) (*models.Subscription, error)
	upserted      []*models.Subscription
}

func (s *subRepoStub) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	if s.getByUserIDFn != nil {
		return s.getByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (s *subRepoStub) Upsert(_ context.Context, sub *models.Subscription) error {
	s.upserted = append(s.upserted, sub)
	return nil
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, string) (*models.User, error)
	getByCustomerIDFn func(context.Context, string) (*models.User, error)
	setCustomerIDFn   func(context.Context, string, string) (bool, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if s.getByCustomerIDFn != nil {
		return s.getByCustomerIDFn(ctx, customerID)
	}
	return nil, models.NewNotFoundError("User", customerID)
}
func (s *userRepoStub) FirstOrCreate(_ context.Context, u *models.User) (*models.User, bool, error) {
	return u, true, nil
}
func (s *userRepoStub) SetCustomerIDIfEmpty(ctx context.Context, userID, customerID string) (bool, error) {
	return s.setCustomerIDFn(ctx, userID, customerID)
}

// gatewayStub is a stub for billing.Gateway.
type gatewayStub struct {
	createCustomerFn  func(context.Context, billing.CustomerRequest) (string, error)
	createCheckoutFn  func(context.Context, billing.CheckoutRequest) (*billing.CheckoutSession, error)
	getSubscriptionFn func(context.Context, string) (*billing.Subscription, error)
	parseWebhookFn    func([]byte, string) (*billing.Event, error)
}

func (g *gatewayStub) CreateCustomer(ctx context.Context, req billing.CustomerRequest) (string, error) {
	return g.createCustomerFn(ctx, req)
}
func (g *gatewayStub) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	return g.createCheckoutFn(ctx, req)
}
func (g *gatewayStub) GetSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	return g.getSubscriptionFn(ctx, id)
}
func (g *gatewayStub) ParseWebhook(payload []byte, sig string) (*billing.Event, error) {
	return g.parseWebhookFn(payload, sig)
}

// cacheStub records invalidations and always loads.
type cacheStub struct {
	invalidated []string
}

func (c *cacheStub) Aside(_ context.Context, _ string, _ any, _ time.Duration, load func() error) error {
	return load()
}
func (c *cacheStub) InvalidateBlog(_ context.Context, sub string) error {
	c.invalidated = append(c.invalidated, sub)
	return nil
}
