// Package seed loads demo fixtures and generates fake tenants for
// development databases. It is not used by the server.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"inkwell/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yml
var fixturesYAML []byte

// Fixtures is the YAML shape of fixtures.yml.
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Sites []SiteFixture `yaml:"sites"`
	Posts []PostFixture `yaml:"posts"`
}

type UserFixture struct {
	ID        string `yaml:"id"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type SiteFixture struct {
	Owner        string `yaml:"owner"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Subdirectory string `yaml:"subdirectory"`
}

type PostFixture struct {
	Site             string   `yaml:"site"`
	Title            string   `yaml:"title"`
	SmallDescription string   `yaml:"small_description"`
	Slug             string   `yaml:"slug"`
	Image            string   `yaml:"image"`
	Paragraphs       []string `yaml:"paragraphs"`
}

// LoadFixtures parses fixture YAML and checks that sites and posts reference
// declared owners and sites.
func LoadFixtures(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	users := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		users[u.ID] = true
	}
	sites := make(map[string]bool, len(f.Sites))
	for _, s := range f.Sites {
		if !users[s.Owner] {
			return nil, fmt.Errorf("site %q: unknown owner %q", s.Subdirectory, s.Owner)
		}
		sites[s.Subdirectory] = true
	}
	for _, p := range f.Posts {
		if !sites[p.Site] {
			return nil, fmt.Errorf("post %q: unknown site %q", p.Slug, p.Site)
		}
	}
	return &f, nil
}

// DefaultFixtures returns the embedded demo fixtures.
func DefaultFixtures() (*Fixtures, error) {
	return LoadFixtures(fixturesYAML)
}

// Seeder writes fixtures and generated data.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ApplyFixtures inserts the fixtures. Rows that already exist are left alone,
// so running it twice is harmless.
func (s *Seeder) ApplyFixtures(ctx context.Context, f *Fixtures) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range f.Users {
			user := models.User{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
				return fmt.Errorf("user %s: %w", u.ID, err)
			}
		}

		siteIDs := make(map[string]models.Site, len(f.Sites))
		for _, sf := range f.Sites {
			site := models.Site{
				Name:         sf.Name,
				Description:  sf.Description,
				Subdirectory: sf.Subdirectory,
				UserID:       sf.Owner,
			}
			if err := tx.Where(models.Site{Subdirectory: sf.Subdirectory}).FirstOrCreate(&site).Error; err != nil {
				return fmt.Errorf("site %s: %w", sf.Subdirectory, err)
			}
			siteIDs[sf.Subdirectory] = site
		}

		for _, pf := range f.Posts {
			site := siteIDs[pf.Site]
			content, err := paragraphsDocument(pf.Paragraphs)
			if err != nil {
				return err
			}
			post := models.Post{
				Title:            pf.Title,
				SmallDescription: pf.SmallDescription,
				Slug:             pf.Slug,
				ArticleContent:   content,
				Image:            pf.Image,
				UserID:           site.UserID,
				SiteID:           site.ID,
			}
			if err := tx.Where(models.Post{SiteID: site.ID, Slug: pf.Slug}).FirstOrCreate(&post).Error; err != nil {
				return fmt.Errorf("post %s/%s: %w", pf.Site, pf.Slug, err)
			}
		}

		log.Printf("✓ fixtures: %d users, %d sites, %d posts", len(f.Users), len(f.Sites), len(f.Posts))
		return nil
	})
}

// ClearAll removes every tenant row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Post{}, &models.Site{}, &models.Subscription{}, &models.User{}} {
		if err := db.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// paragraphsDocument builds a document with one paragraph node per entry.
func paragraphsDocument(paragraphs []string) (datatypes.JSON, error) {
	doc := models.Document{Type: "doc"}
	for _, p := range paragraphs {
		doc.Content = append(doc.Content, models.Document{
			Type:    "paragraph",
			Content: []models.Document{{Type: "text", Text: p}},
		})
	}
	return doc.Encode()
}
