package seed

import (
	"context"
	"fmt"
	"log"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls generated data.
type Options struct {
	Users        int
	PostsPerSite int
	// Seed makes generation reproducible; zero picks a random seed.
	Seed int64
}

// Factory builds fake tenants. Every generated value passes the same
// validation as dashboard forms.
type Factory struct {
	faker *gofakeit.Faker
	used  map[string]bool
}

func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed), used: make(map[string]bool)}
}

// BuildUser returns a user with a synthetic identity-provider subject.
func (f *Factory) BuildUser() *models.User {
	return &models.User{
		ID:           "kp_" + strings.ReplaceAll(f.faker.UUID(), "-", ""),
		Email:        f.faker.Email(),
		FirstName:    f.faker.FirstName(),
		LastName:     f.faker.LastName(),
		ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
}

// BuildSite returns a site for userID with a subdirectory unique to this factory.
func (f *Factory) BuildSite(userID string) *models.Site {
	return &models.Site{
		Name:         truncate(f.faker.Company(), validation.MaxSiteNameLength),
		Description:  truncate(f.faker.Sentence(10), validation.MaxSiteDescriptionLength),
		Subdirectory: f.subdirectory(),
		UserID:       userID,
	}
}

func (f *Factory) subdirectory() string {
	for {
		base := validation.Slugify(f.faker.Adjective() + " " + f.faker.Noun())
		sub := truncate(fmt.Sprintf("%s-%d", base, f.faker.Number(10, 9999)), validation.MaxSubdirectoryLength)
		sub = strings.Trim(sub, "-")
		if validation.IsSlug(sub) && !validation.IsReservedSubdirectory(sub) && !f.used[sub] {
			f.used[sub] = true
			return sub
		}
	}
}

// BuildPost returns an article on site with a slug derived from its title.
func (f *Factory) BuildPost(site *models.Site) (*models.Post, error) {
	title := truncate(strings.TrimSuffix(f.faker.Sentence(5), "."), validation.MaxTitleLength)
	slug := validation.Slugify(title)
	key := site.Subdirectory + "/" + slug
	if f.used[key] {
		slug = validation.Slugify(fmt.Sprintf("%s %d", title, f.faker.Number(100, 999)))
		key = site.Subdirectory + "/" + slug
	}
	f.used[key] = true

	content, err := paragraphsDocument([]string{
		f.faker.Paragraph(1, 4, 12, " "),
		f.faker.Paragraph(1, 3, 12, " "),
	})
	if err != nil {
		return nil, err
	}

	return &models.Post{
		Title:            title,
		SmallDescription: truncate(f.faker.Sentence(12), validation.MaxSmallDescriptionLength),
		Slug:             slug,
		ArticleContent:   content,
		Image:            fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", f.faker.UUID()),
		UserID:           site.UserID,
		SiteID:           site.ID,
	}, nil
}

// Generate creates opts.Users users, each with one site and opts.PostsPerSite posts.
func (s *Seeder) Generate(ctx context.Context, f *Factory, opts Options) ([]*models.User, error) {
	db := s.db.WithContext(ctx)
	users := make([]*models.User, 0, opts.Users)

	for i := 0; i < opts.Users; i++ {
		user := f.BuildUser()
		if err := db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		site := f.BuildSite(user.ID)
		if err := db.Create(site).Error; err != nil {
			return nil, fmt.Errorf("create site: %w", err)
		}

		posts := make([]*models.Post, 0, opts.PostsPerSite)
		for j := 0; j < opts.PostsPerSite; j++ {
			post, err := f.BuildPost(site)
			if err != nil {
				return nil, err
			}
			posts = append(posts, post)
		}
		if len(posts) > 0 {
			if err := db.Create(&posts).Error; err != nil {
				return nil, fmt.Errorf("create posts: %w", err)
			}
		}
		users = append(users, user)
	}

	log.Printf("✓ generated %d users with one site and %d posts each", len(users), opts.PostsPerSite)
	return users, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n])
}
