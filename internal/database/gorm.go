package database

import (
	"fmt"

	"imobi-crm/internal/config"
	"imobi-crm/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by cfg.StorageDriver and runs the
// auto-migration. The memory driver has no database and is rejected here.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DBPath)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("storage driver %q has no database", cfg.StorageDriver)
	}

	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.StorageDriver, err)
	}
	log.Info("Connected to database", zap.String("driver", cfg.StorageDriver))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migration completed")
	return db, nil
}

// OpenSQLite opens a sqlite database at path and migrates it.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Tables lists every migrated model, in dependency order.
func Tables() []interface{} {
	return []interface{}{
		&models.Template{},
		&models.AutomationRule{},
		&models.Lead{},
		&models.ChatMessage{},
		&models.Empreendimento{},
		&models.AutomationLog{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("run auto-migration: %w", err)
	}
	return nil
}

// SerialTables are the tables whose primary key comes from a postgres sequence.
var SerialTables = []string{"chat_messages", "automation_logs"}

// SyncSequences moves every serial sequence past the largest stored id. Rows
// copied with explicit ids leave postgres sequences behind.
func SyncSequences(db *gorm.DB) error {
	for _, table := range SerialTables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("sync sequence for %s: %w", table, err)
		}
	}
	return nil
}
