// Command main seeds a development database with demo tenants.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/identity"
	"inkwell/internal/seed"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of generated users")
	postsPerSite := flag.Int("posts", 5, "Number of posts per generated site")
	shouldClean := flag.Bool("clean", false, "Delete existing tenants before seeding")
	fakeSeed := flag.Int64("seed", 0, "Random seed for generated data (0 = random)")
	tokenFor := flag.String("token", "", "Print a development session token for this user id and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *tokenFor != "" {
		if cfg.IsProduction() {
			log.Fatal("Refusing to issue development tokens in production")
		}
		tok, err := identity.NewHMACVerifier(cfg.SessionSecret, cfg.AuthIssuer, cfg.AuthAudience).
			Issue(identity.Session{Subject: *tokenFor, Email: *tokenFor + "@inkwell.local"}, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	fixtures, err := seed.DefaultFixtures()
	if err != nil {
		log.Fatalf("❌ Invalid fixtures: %v", err)
	}
	if err := s.ApplyFixtures(ctx, fixtures); err != nil {
		log.Fatalf("❌ Fixture seeding failed: %v", err)
	}

	if _, err := s.Generate(ctx, seed.NewFactory(*fakeSeed), seed.Options{
		Users:        *numUsers,
		PostsPerSite: *postsPerSite,
	}); err != nil {
		log.Fatalf("❌ Generated seeding failed: %v", err)
	}

	log.Println("✨ All done! Use -token <user id> to sign in as a seeded user.")
}
