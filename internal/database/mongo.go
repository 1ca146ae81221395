package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewCatalogDatabase connects to the MongoDB question bank and returns a
// handle on the catalog database. The catalog is read-only from this
// service's perspective; only the dev seed tool writes to it.
func NewCatalogDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*mongo.Database, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.CatalogURI).
		SetTimeout(cfg.CatalogTimeout))
	if err != nil {
		return nil, nil, fmt.Errorf("connect catalog: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping catalog: %w", err)
	}

	log.Info().
		Str("db", cfg.CatalogDB).
		Msg("Question catalog connected")

	return client.Database(cfg.CatalogDB), client.Disconnect, nil
}
