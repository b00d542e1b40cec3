package main

import (
	"context"
	"net/http"
	"os"

	"survivalvolume/adapters/api"
	"survivalvolume/adapters/postgres"
	"survivalvolume/internal"
	"survivalvolume/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// A missing .env is fine; the environment may be set externally.
	godotenv.Load()

	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration failed: %v", err)
		os.Exit(1)
	}

	var results *postgres.ResultsRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("database connection failed: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		results = postgres.NewResultsRepository(db)
		if err := results.EnsureSchema(context.Background()); err != nil {
			logger.Error("schema setup failed: %v", err)
			os.Exit(1)
		}
		logger.Info("results persistence enabled")
	} else {
		logger.Info("DATABASE_URL not set, running without persistence")
	}

	server := api.NewServer(cfg.StudyStats(), results)

	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
