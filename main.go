// main.go
package main

import (
	"context"
	"log"
	"time"

	"parking-reservation/cmd"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/wire"
	"parking-reservation/pkg/database"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, logger)

	// Time-driven transitions: expire unpaid reservations past the grace
	// window, close out elapsed ones.
	go runSweeps(app, config.Reservation.SweepInterval, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}

func runSweeps(app *wire.App, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		if n, err := app.Service.Reservation.ExpireStale(ctx); err != nil {
			logger.Error("Expire sweep failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("Expire sweep finished", zap.Int("expired", n))
		}

		if n, err := app.Service.Reservation.SweepElapsed(ctx); err != nil {
			logger.Error("Elapsed sweep failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("Elapsed sweep finished", zap.Int("transitioned", n))
		}

		cancel()
	}
}
