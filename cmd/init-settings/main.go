// Command init-settings creates the singleton policy row with its default
// values.  The server does this lazily on first read anyway; the command
// exists so provisioning scripts can seed the row explicitly and detect
// whether settings were already configured.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/database"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	created, err := repository.NewSettingsRepo(db).InitDefaults(ctx)
	if err != nil {
		log.Fatalf("init settings: %v", err)
	}
	if created {
		log.Println("settings row created with defaults")
	} else {
		log.Println("settings already present; nothing to do")
	}
}
