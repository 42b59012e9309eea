package service

import (
	"context"

	"inkwell/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Entitlement is what a user's plan currently allows.
type Entitlement struct {
	SubscriptionActive bool  `json:"subscription_active"`
	SiteCount          int64 `json:"site_count"`
}

// EntitlementChecker loads a user's subscription state and site count.
type EntitlementChecker struct {
	subs  repository.SubscriptionRepository
	sites repository.SiteRepository
}

func NewEntitlementChecker(subs repository.SubscriptionRepository, sites repository.SiteRepository) *EntitlementChecker {
	return &EntitlementChecker{subs: subs, sites: sites}
}

// Check runs both lookups concurrently; either failing fails the check.
func (c *EntitlementChecker) Check(ctx context.Context, userID string) (Entitlement, error) {
	var ent Entitlement
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sub, err := c.subs.GetByUserID(gctx, userID)
		if err != nil {
			return err
		}
		ent.SubscriptionActive = sub.IsActive()
		return nil
	})
	g.Go(func() error {
		n, err := c.sites.CountByUser(gctx, userID)
		if err != nil {
			return err
		}
		ent.SiteCount = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return Entitlement{}, err
	}
	return ent, nil
}

// AllowSiteCreation is the site quota: subscribers are unlimited, everyone
// else gets a single site.
func AllowSiteCreation(subActive bool, siteCount int64) bool {
	if subActive {
		return true
	}
	return siteCount == 0
}
