package service

import (
	"context"
	"encoding/json"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// BlogPost is one entry of a public blog index.
type BlogPost struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	SmallDescription string    `json:"small_description"`
	Image            string    `json:"image"`
	Slug             string    `json:"slug"`
	Link             string    `json:"link"`
	CreatedAt        time.Time `json:"created_at"`
}

// Blog is the public index of a site.
type Blog struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Subdirectory string     `json:"subdirectory"`
	ImageURL     *string    `json:"image_url"`
	Posts        []BlogPost `json:"posts"`
}

// Article is one public post with its document tree.
type Article struct {
	SiteName         string          `json:"site_name"`
	Title            string          `json:"title"`
	SmallDescription string          `json:"small_description"`
	Image            string          `json:"image"`
	Slug             string          `json:"slug"`
	Content          json.RawMessage `json:"content"`
	CreatedAt        time.Time       `json:"created_at"`
}

// BlogLink is the public path of a post.
func BlogLink(subdirectory, slug string) string {
	return "/blog/" + subdirectory + "/" + slug
}

// BlogService serves the anonymous read path.
type BlogService struct {
	sites repository.SiteRepository
	posts repository.PostRepository
	cache BlogCache
	flags *featureflags.Manager
}

func NewBlogService(sites repository.SiteRepository, posts repository.PostRepository, c BlogCache, flags *featureflags.Manager) *BlogService {
	return &BlogService{sites: sites, posts: posts, cache: cacheOrNoop(c), flags: flags}
}

func (s *BlogService) cacheFor(subdirectory string) BlogCache {
	if s.flags.Enabled(featureflags.BlogCache, subdirectory) {
		return s.cache
	}
	return noopCache{}
}

// GetBlog returns the site published under name with its posts newest first.
func (s *BlogService) GetBlog(ctx context.Context, name string) (*Blog, error) {
	var blog Blog
	err := s.cacheFor(name).Aside(ctx, cache.BlogKey(name), &blog, cache.BlogTTL, func() error {
		site, err := s.sites.GetBySubdirectory(ctx, name)
		if err != nil {
			return err
		}
		blog = toBlog(site)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

// GetArticle returns the post slug of the site published under name.
func (s *BlogService) GetArticle(ctx context.Context, name, slug string) (*Article, error) {
	var article Article
	err := s.cacheFor(name).Aside(ctx, cache.BlogArticleKey(name, slug), &article, cache.BlogTTL, func() error {
		site, err := s.sites.GetBySubdirectory(ctx, name)
		if err != nil {
			return err
		}
		post, err := s.posts.GetBySiteAndSlug(ctx, site.ID, slug)
		if err != nil {
			return err
		}
		article = Article{
			SiteName:         site.Name,
			Title:            post.Title,
			SmallDescription: post.SmallDescription,
			Image:            post.Image,
			Slug:             post.Slug,
			Content:          json.RawMessage(post.ArticleContent),
			CreatedAt:        post.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func toBlog(site *models.Site) Blog {
	b := Blog{
		Name:         site.Name,
		Description:  site.Description,
		Subdirectory: site.Subdirectory,
		ImageURL:     site.ImageURL,
		Posts:        make([]BlogPost, 0, len(site.Posts)),
	}
	for _, p := range site.Posts {
		b.Posts = append(b.Posts, BlogPost{
			ID:               p.ID.String(),
			Title:            p.Title,
			SmallDescription: p.SmallDescription,
			Image:            p.Image,
			Slug:             p.Slug,
			Link:             BlogLink(site.Subdirectory, p.Slug),
			CreatedAt:        p.CreatedAt,
		})
	}
	return b
}
