package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"golang.org/x/sync/errgroup"
)

const overviewLimit = 3

// Overview is the dashboard landing page.
type Overview struct {
	Sites []models.Site `json:"sites"`
	Posts []models.Post `json:"posts"`
}

// Pricing is the plan page with the caller's current standing.
type Pricing struct {
	PriceID       string      `json:"price_id"`
	Entitlement   Entitlement `json:"entitlement"`
	CanCreateSite bool        `json:"can_create_site"`
}

type DashboardService struct {
	sites        repository.SiteRepository
	posts        repository.PostRepository
	entitlements *EntitlementChecker
	priceID      string
}

func NewDashboardService(
	sites repository.SiteRepository,
	posts repository.PostRepository,
	entitlements *EntitlementChecker,
	priceID string,
) *DashboardService {
	return &DashboardService{sites: sites, posts: posts, entitlements: entitlements, priceID: priceID}
}

// Overview loads the newest sites and posts of the user concurrently.
func (s *DashboardService) Overview(ctx context.Context, userID string) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Sites, err = s.sites.ListByUser(gctx, userID, overviewLimit)
		return err
	})
	g.Go(func() (err error) {
		out.Posts, err = s.posts.ListRecentByUser(gctx, userID, overviewLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DashboardService) Pricing(ctx context.Context, userID string) (*Pricing, error) {
	ent, err := s.entitlements.Check(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Pricing{
		PriceID:       s.priceID,
		Entitlement:   ent,
		CanCreateSite: AllowSiteCreation(ent.SubscriptionActive, ent.SiteCount),
	}, nil
}
