package gormdb

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smallflock/coopkeeper/internal/config"
	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// Sentinel errors surfaced by every repository in this package.
var (
	// ErrNotFound covers both genuinely missing rows and rows filtered out by
	// ownership scoping, so a non-owner never learns that a row exists.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned for unique-constraint violations.
	ErrConflict = errors.New("record conflict")
	// ErrInvalid is returned when a write fails domain validation.
	ErrInvalid = errors.New("invalid record")
)

// Open connects to the relational store and ensures the schema is current.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("database connected and migrated")
	return db, nil
}

// Migrate applies the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.FlockProfile{},
		&models.FlockBatch{},
		&models.BatchDeath{},
		&models.BatchEvent{},
		&models.FlockEvent{},
		&models.EggEntry{},
		&models.Expense{},
		&models.FeedEntry{},
		&models.Customer{},
		&models.Sale{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database handle: %w", err)
	}
	return sqlDB.Close()
}

// columnGroup is one slice of a batch upsert whose records share an update
// column set.
type columnGroup[T any] struct {
	columns []string
	records []T
}

// groupByColumns splits batch records into groups with identical update
// column sets, preserving first-seen order. Writing each group as its own
// conflict statement keeps a record's omitted optional fields out of the
// update set even when a sibling record in the batch supplied them.
func groupByColumns[T any](records []T, colSets [][]string) []columnGroup[T] {
	index := make(map[string]int)
	var groups []columnGroup[T]
	for i, record := range records {
		key := strings.Join(colSets[i], ",")
		at, ok := index[key]
		if !ok {
			at = len(groups)
			index[key] = at
			groups = append(groups, columnGroup[T]{columns: colSets[i]})
		}
		groups[at].records = append(groups[at].records, record)
	}
	return groups
}

// translate maps GORM errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}
