// Package catalog owns the persistent index of files on disk: the sqlite
// store, the filesystem crawler and the reconciliation pass that keeps
// the two in sync. The catalog is append-only; records change only by
// explicit deletion.
package catalog

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/clexlab/cdsfetch/internal/models"
)

// Store wraps the catalog database. Reads may run concurrently; all
// writes happen in single-call transactions.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite catalog at path, creating it if absent.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the file table if it does not exist yet.
func (s *Store) EnsureSchema() error {
	if err := s.db.AutoMigrate(&models.CatalogRecord{}); err != nil {
		return fmt.Errorf("migrating catalog schema: %w", err)
	}
	return nil
}

// Filenames returns the catalogued filenames whose location matches the
// given LIKE pattern, in filename order.
func (s *Store) Filenames(locationPattern string) ([]string, error) {
	var names []string
	err := s.db.Model(&models.CatalogRecord{}).
		Where("location LIKE ?", locationPattern).
		Order("filename asc").
		Pluck("filename", &names).Error
	if err != nil {
		return nil, fmt.Errorf("querying filenames for %q: %w", locationPattern, err)
	}
	return names, nil
}

// Rows returns every catalog record, in filename order.
func (s *Store) Rows() ([]models.CatalogRecord, error) {
	var rows []models.CatalogRecord
	if err := s.db.Order("filename asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading catalog rows: %w", err)
	}
	return rows, nil
}

// InsertIgnore bulk-inserts records, silently skipping any whose filename
// already exists, and returns the number of rows actually inserted. The
// whole batch is one transaction.
func (s *Store) InsertIgnore(records []models.CatalogRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
	if tx.Error != nil {
		return 0, fmt.Errorf("inserting %d records: %w", len(records), tx.Error)
	}
	return tx.RowsAffected, nil
}

// DeleteWhere removes at most one record keyed on (filename, location)
// and returns the number of rows affected.
func (s *Store) DeleteWhere(filename, location string) (int64, error) {
	tx := s.db.Where("filename = ? AND location = ?", filename, location).
		Delete(&models.CatalogRecord{})
	if tx.Error != nil {
		return 0, fmt.Errorf("deleting %s from %s: %w", filename, location, tx.Error)
	}
	return tx.RowsAffected, nil
}
