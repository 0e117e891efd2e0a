package main

import (
	"log"

	"github.com/spf13/pflag"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	count := pflag.Int("count", 20, "number of demo users to create")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	if err := db.SeedTestData(database, cfg.App.EmailDomain, *count); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
