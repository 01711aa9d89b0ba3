package main

import (
	"context"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/config"
	"github.com/isdelr/civic-ideas-be/internal/database"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"github.com/isdelr/civic-ideas-be/internal/repository/mongo"
	"github.com/isdelr/civic-ideas-be/internal/repository/sqlite"
	"github.com/rs/zerolog/log"
)

// openStore connects to the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		client, db, err := database.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB store")
		return mongo.New(client, db), nil
	default:
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.DatabasePath).Msg("Using SQLite store")
		return sqlite.New(db), nil
	}
}
