package migration

import (
	"context"
	"time"

	"url-migrator/internal/migration/adapter/persistence/mongodb"
	"url-migrator/internal/migration/config"
	"url-migrator/internal/migration/domain/model"
	"url-migrator/internal/migration/usecase"
	"url-migrator/internal/shared/logger"
)

const closeTimeout = 10 * time.Second

// Module represents the complete URL migration module
type Module struct {
	store    *mongodb.DocumentStore
	migrator *usecase.Migrator
	log      logger.Logger
}

// NewModule connects to the store and wires the migrator. A connection
// failure is returned to the caller; the module holds no partial state in
// that case. On success the resolved configuration is logged for
// operability.
func NewModule(ctx context.Context, cfg *config.Config, log logger.Logger) (*Module, error) {
	cctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	store, err := mongodb.NewDocumentStore(cctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}

	log.Infof("Connected to MongoDB: %s", cfg.MongoURI)
	log.Infof("Database: %s", cfg.DatabaseName)
	log.Infof("Old URL: %s", cfg.OldURL)
	log.Infof("New URL: %s", cfg.NewURL)

	targets := model.DefaultTargets(cfg.GroundTruthCollection, cfg.UserClothesCollection)
	migrator := usecase.NewMigrator(store, cfg, targets, log)

	return &Module{
		store:    store,
		migrator: migrator,
		log:      log,
	}, nil
}

// Run executes the polling loop until ctx is cancelled.
func (m *Module) Run(ctx context.Context) error {
	return m.migrator.Run(ctx)
}

// Stats returns a snapshot of the current run statistics.
func (m *Module) Stats() model.Stats {
	return m.migrator.Stats()
}

// Close releases the store handle.
func (m *Module) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := m.store.Close(ctx); err != nil {
		return err
	}
	m.log.Info("MongoDB connection closed")
	return nil
}
