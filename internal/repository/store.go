// Package repository implements the PostgreSQL stores on top of gorm.
package repository

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store holds the DB handle and repositories.
type Store struct {
	db          *gorm.DB
	Sessions    *SessionRepo
	Memories    *MemoryRepo
	Permissions *PermissionRepo
	Records     *RecordsRepo
}

// NewStore opens the PostgreSQL connection, pings it and builds the repositories.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:          db,
		Sessions:    NewSessionRepo(db),
		Memories:    NewMemoryRepo(db),
		Permissions: NewPermissionRepo(db),
		Records:     NewRecordsRepo(db),
	}, nil
}

// AutoMigrate enables pgvector and creates or updates every table.
func (s *Store) AutoMigrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	if err := db.AutoMigrate(
		&sessionModel{},
		&userMemoryModel{},
		&observationModel{},
		&permissionModel{},
		&moodModel{},
		&sleepModel{},
		&journalModel{},
		&assessmentModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// HasVectorExtension reports whether pgvector is installed.
func (s *Store) HasVectorExtension(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM pg_extension WHERE extname = 'vector'").
		Scan(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pgvector extension: %w", err)
	}
	return count > 0, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
