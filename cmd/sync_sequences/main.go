package main

import (
	"log"

	"imobi-crm/internal/config"
	"imobi-crm/internal/database"
	"imobi-crm/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		logger.Fatal("Sequences only exist on postgres", zap.String("driver", cfg.StorageDriver))
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}

	logger.Info("Syncing PostgreSQL sequences...", zap.Strings("tables", database.SerialTables))
	if err := database.SyncSequences(db); err != nil {
		logger.Fatal("Failed to sync sequences", zap.Error(err))
	}
	logger.Info("DONE!")
}
