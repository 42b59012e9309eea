package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetBlog handles GET /blog/:name
func (s *Server) GetBlog(c *fiber.Ctx) error {
	blog, err := s.blogService.GetBlog(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(blog)
}

// GetBlogArticle handles GET /blog/:name/:slug
func (s *Server) GetBlogArticle(c *fiber.Ctx) error {
	article, err := s.blogService.GetArticle(c.UserContext(), c.Params("name"), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(article)
}
