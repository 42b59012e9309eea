package server

import (
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetOverview handles GET /dashboard
func (s *Server) GetOverview(c *fiber.Ctx) error {
	ov, err := s.dashboardService.Overview(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(ov)
}

// GetPricing handles GET /dashboard/pricing
func (s *Server) GetPricing(c *fiber.Ctx) error {
	p, err := s.dashboardService.Pricing(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// GenerateSlug handles GET /dashboard/slug?title=...
func (s *Server) GenerateSlug(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"slug": validation.Slugify(c.Query("title"))})
}

// ListSites handles GET /dashboard/sites
func (s *Server) ListSites(c *fiber.Ctx) error {
	sites, err := s.siteService.ListSites(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(sites)
}

// GetSite handles GET /dashboard/sites/:siteId
func (s *Server) GetSite(c *fiber.Ctx) error {
	siteID, err := parseUUID(c, "siteId")
	if err != nil {
		return nil
	}
	site, err := s.siteService.GetSite(c.UserContext(), currentUserID(c), siteID)
	if err != nil {
		return err
	}
	return c.JSON(site)
}

// GetArticle handles GET /dashboard/sites/:siteId/articles/:articleId
func (s *Server) GetArticle(c *fiber.Ctx) error {
	siteID, err := parseUUID(c, "siteId")
	if err != nil {
		return nil
	}
	articleID, err := parseUUID(c, "articleId")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), currentUserID(c), siteID, articleID)
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// CreateSite handles POST /dashboard/sites
func (s *Server) CreateSite(c *fiber.Ctx) error {
	return handleForm(c, s.siteService.CreateSite)
}

// UpdateSiteImage handles POST /dashboard/sites/image
func (s *Server) UpdateSiteImage(c *fiber.Ctx) error {
	return handleForm(c, s.siteService.UpdateImage)
}

// DeleteSite handles POST /dashboard/sites/delete
func (s *Server) DeleteSite(c *fiber.Ctx) error {
	return handleForm(c, s.siteService.DeleteSite)
}

// CreateArticle handles POST /dashboard/articles
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	return handleForm(c, s.postService.CreatePost)
}

// EditArticle handles POST /dashboard/articles/edit
func (s *Server) EditArticle(c *fiber.Ctx) error {
	return handleForm(c, s.postService.EditPost)
}

// DeleteArticle handles POST /dashboard/articles/delete
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	return handleForm(c, s.postService.DeletePost)
}
