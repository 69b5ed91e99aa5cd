// Command migrate applies the database schema and exits.
package main

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/kmankan/converse-chronicle/internal/config"
	"github.com/kmankan/converse-chronicle/internal/storage"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var db *sql.DB
	var err error
	if strings.EqualFold(cfg.Database.Driver, "postgres") {
		db, err = storage.NewPostgres(ctx, cfg.Database)
	} else {
		db, err = storage.NewSQLite(cfg.Database)
	}
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully.")
}
