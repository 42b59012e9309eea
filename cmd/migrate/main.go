// Command migrate applies, inspects and rolls back database schema changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/database"

	_ "github.com/joho/godotenv/autoload"
	"gorm.io/gorm"
)

type command struct {
	summary string
	run     func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up": {
		summary: "apply pending SQL migrations",
		run: func(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
			if err := database.RunMigrations(ctx, db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			log.Println("sql migrations applied")
			return nil
		},
	},
	"auto": {
		summary: "run GORM automigrate for every registered model",
		run: func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
			cfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(ctx, db, cfg); err != nil {
				return fmt.Errorf("automigrate failed: %w", err)
			}
			log.Println("automigrate complete")
			return nil
		},
	},
	"status": {
		summary: "print the schema plan and pending migrations",
		run: func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
			status, err := database.GetSchemaStatus(ctx, db, cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			fmt.Printf("mode:     %s (%s)\n", status.Mode, status.Environment)
			fmt.Printf("sql:      %t\n", status.RunSQL)
			fmt.Printf("auto:     %t\n", status.RunAuto)
			fmt.Printf("applied:  %d\n", len(status.AppliedVersions))
			fmt.Printf("pending:  %d\n", len(status.PendingMigrations))
			for _, m := range status.PendingMigrations {
				fmt.Printf("  - %s\n", m)
			}
			return nil
		},
	},
	"down": {
		summary: "roll back one migration: down <version>",
		run: func(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("down requires a migration version")
			}
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			if err := database.RollbackMigration(ctx, db, version); err != nil {
				return fmt.Errorf("rollback of %d failed: %w", version, err)
			}
			log.Printf("rolled back migration %d", version)
			return nil
		},
	},
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := cmd.run(context.Background(), db, cfg, flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "usage: migrate <command> [args]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, commands[name].summary)
	}
}
