package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/choirhub/choir-api/internal/config"
)

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	return open(conf.DSN())
}

// OpenPostgresWithURL accepts a postgres:// URL as set in DATABASE_URL by
// most hosting platforms.
func OpenPostgresWithURL(url string) (*gorm.DB, error) {
	return open(url)
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("sqlDB.Ping -> %w", err)
	}

	zap.L().Info("connected to postgres")

	return db, nil
}
