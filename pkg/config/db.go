package config

import (
	"context"
	"fmt"
	"time"

	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/resilience"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectRetries    = 5
	connectRetryDelay = 2 * time.Second
)

// DSN builds the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
		int(c.Database.Timeout.Seconds()),
	)
}

// NewDB opens the postgres connection, retrying while the database comes up
func NewDB(ctx context.Context, log *logger.Logger) (*gorm.DB, error) {
	cfg := Get()

	gormConfig := &gorm.Config{}
	if cfg.Server.Env == "development" {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	} else {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	var db *gorm.DB
	attempt := 0
	err := resilience.Retry(ctx, connectRetries, connectRetryDelay, nil, func(context.Context) error {
		attempt++
		var err error
		if db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig); err != nil {
			log.Warn("Failed to connect to database, retrying",
				"attempt", attempt,
				"error", err.Error(),
			)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}
