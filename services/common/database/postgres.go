// Package database opens the GORM connections used by the postgres-backed
// repositories.
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yashrajoria/shopswift/services/common/config"
)

// PostgresConfig describes a postgres connection. DSN wins over the
// individual fields when set.
type PostgresConfig struct {
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// PostgresConfigFromEnv reads DATABASE_URL or the POSTGRES_* variables.
func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		DSN:      config.GetEnv("DATABASE_URL", ""),
		Host:     config.GetEnv("POSTGRES_HOST", "localhost"),
		Port:     config.GetEnv("POSTGRES_PORT", "5432"),
		User:     config.GetEnv("POSTGRES_USER", ""),
		Password: config.GetEnv("POSTGRES_PASSWORD", ""),
		DBName:   config.GetEnv("POSTGRES_DB", ""),
		SSLMode:  config.GetEnv("POSTGRES_SSLMODE", "disable"),
		TimeZone: config.GetEnv("POSTGRES_TIMEZONE", "UTC"),
	}
}

func (c PostgresConfig) dsn() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.User == "" || c.Password == "" || c.DBName == "" {
		return "", fmt.Errorf("database config incomplete: POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB are required")
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode, c.TimeZone,
	), nil
}

// ConnectPostgres opens a pool, retrying while the database starts up, and
// migrates the given models.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig, log *zap.Logger, models ...any) (*gorm.DB, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}

	const attempts = 10
	var db *gorm.DB
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err == nil {
			break
		}
		log.Warn("postgres connection failed", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", attempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if len(models) > 0 {
		if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("auto-migrate failed: %w", err)
		}
	}
	log.Info("connected to PostgreSQL")
	return db, nil
}

// Close closes the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
