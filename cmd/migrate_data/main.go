package main

import (
	"log"

	"imobi-crm/internal/config"
	"imobi-crm/internal/database"
	"imobi-crm/internal/logging"
	"imobi-crm/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Copies every CRM table from the sqlite file at DB_PATH into the postgres
// database at DB_DSN, then syncs the postgres sequences.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if cfg.DBDSN == "" {
		logger.Fatal("DB_DSN is required as the migration destination")
	}

	// 1. Connect to SQLite (Source)
	sqliteDB, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to connect to SQLite", zap.Error(err))
	}
	logger.Info("Connected to SQLite", zap.String("path", cfg.DBPath))

	// 2. Connect to PostgreSQL (Destination)
	pgCfg := *cfg
	pgCfg.StorageDriver = config.DriverPostgres
	pgDB, err := database.Open(&pgCfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	logger.Info("Starting data migration...")
	failed := 0
	migrate := func(table string, rows interface{}) {
		if err := copyTable(sqliteDB, pgDB, rows); err != nil {
			logger.Error("Error migrating table", zap.String("table", table), zap.Error(err))
			failed++
			return
		}
		logger.Info("Successfully migrated table", zap.String("table", table))
	}

	migrate("templates", &[]models.Template{})
	migrate("automation_rules", &[]models.AutomationRule{})
	migrate("leads", &[]models.Lead{})
	migrate("chat_messages", &[]models.ChatMessage{})
	migrate("empreendimentos", &[]models.Empreendimento{})
	migrate("automation_logs", &[]models.AutomationLog{})

	if err := database.SyncSequences(pgDB); err != nil {
		logger.Error("Failed to sync sequences", zap.Error(err))
		failed++
	}

	if failed > 0 {
		logger.Fatal("Migration finished with errors", zap.Int("failed", failed))
	}
	logger.Info("Migration completed!")
}

// copyTable reads every row into rows (a pointer to a slice) and inserts it
// at the destination, skipping rows whose key already exists.
func copyTable(src, dst *gorm.DB, rows interface{}) error {
	result := src.Find(rows)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nil
	}
	return dst.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error
	})
}
