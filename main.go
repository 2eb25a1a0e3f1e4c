package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse/mssql"
	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse/postgres"
	"github.com/modelsmith-ai/modelsmith/pkg/config"
	"github.com/modelsmith-ai/modelsmith/pkg/handlers"
	"github.com/modelsmith-ai/modelsmith/pkg/inference"
	"github.com/modelsmith-ai/modelsmith/pkg/publisher"
	"github.com/modelsmith-ai/modelsmith/pkg/session"
	"github.com/modelsmith-ai/modelsmith/pkg/validator"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Warehouse: %s %s@%s:%d/%s", cfg.Warehouse.Kind, cfg.Warehouse.User, cfg.Warehouse.Host, cfg.Warehouse.Port, cfg.Warehouse.Database)
	log.Printf("  Stage: %s.%s.%s", cfg.Stage.Database, cfg.Stage.Schema, cfg.Stage.Name)

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	discoverer, err := buildDiscoverer(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to warehouse: %v", err)
	}
	defer discoverer.Close()

	store, err := buildStageStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to stage: %v", err)
	}
	defer store.Close()

	stage := warehouse.StageRef{
		Database: cfg.Stage.Database,
		Schema:   cfg.Stage.Schema,
		Name:     cfg.Stage.Name,
	}

	sess := session.New(logger)
	inf := inference.NewService(discoverer, cfg.Inference.SampleValueLimit, logger)
	val := validator.New(discoverer, logger)
	pub := publisher.New(store, stage, val, logger)

	mux := http.NewServeMux()

	// Register handlers
	healthHandler := handlers.NewHealthHandler(cfg, discoverer, store, logger)
	healthHandler.RegisterRoutes(mux)

	modelHandler := handlers.NewModelHandler(sess, inf, pub, logger)
	modelHandler.RegisterRoutes(mux)

	log.Printf("Starting modelsmith on port %s (version: %s)", cfg.Port, cfg.Version)
	if err := http.ListenAndServe(cfg.BindAddr+":"+cfg.Port, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsLocal() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildDiscoverer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (warehouse.SchemaDiscoverer, error) {
	switch cfg.Warehouse.Kind {
	case "mssql":
		return mssql.NewSchemaDiscoverer(ctx, &mssql.Config{
			Host:     cfg.Warehouse.Host,
			Port:     cfg.Warehouse.Port,
			Username: cfg.Warehouse.User,
			Password: cfg.Warehouse.Password,
			Database: cfg.Warehouse.Database,
		}, logger)
	default:
		return postgres.NewSchemaDiscoverer(ctx, &postgres.Config{
			Host:     cfg.Warehouse.Host,
			Port:     cfg.Warehouse.Port,
			User:     cfg.Warehouse.User,
			Password: cfg.Warehouse.Password,
			Database: cfg.Warehouse.Database,
			SSLMode:  cfg.Warehouse.SSLMode,
		}, logger)
	}
}

func buildStageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (warehouse.StageStore, error) {
	// Stage artifacts live in a postgres stage table regardless of which
	// warehouse schema discovery runs against, so the stage has its own
	// connection (falling back to the warehouse one when it is postgres).
	stage := cfg.StageConnection()
	return postgres.NewStageStore(ctx, &postgres.Config{
		Host:     stage.Host,
		Port:     stage.Port,
		User:     stage.User,
		Password: stage.Password,
		Database: stage.Database,
		SSLMode:  stage.SSLMode,
	}, logger)
}
