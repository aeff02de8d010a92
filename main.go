package main

import (
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/andsalazar/FederalBudgetAnalysis/adapters/postgres"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/api"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/config"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	logger := logging.NewDefault()

	dsn := config.DatabaseURL()
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	observations := postgres.NewObservationRepository(db)
	runs := postgres.NewRunRepository(db)

	server := api.NewServer(runs, observations, logger)
	addr := config.ServerAddr()
	logger.Info("serving study results on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
