package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the telemetry database
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates it
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Run{}, &TickRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate telemetry database: %w", err)
	}

	log.Printf("Telemetry database ready at %s", path)
	return &Store{db: db}, nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun creates a run record. config is stored as JSON.
func (s *Store) StartRun(environment string, config any) (*Run, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}

	run := &Run{
		ID:          uuid.New(),
		CreatedAt:   time.Now(),
		Environment: environment,
		ConfigJSON:  string(data),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// Runs returns the most recent runs first
func (s *Store) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// SaveTicks stores a batch of tick records
func (s *Store) SaveTicks(records []TickRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.CreateInBatches(records, 100).Error
}

// RecentTicks returns up to limit records of a run, latest tick first
func (s *Store) RecentTicks(runID uuid.UUID, limit int) ([]TickRecord, error) {
	var records []TickRecord
	err := s.db.Where("run_id = ?", runID).
		Order("tick DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ModeCounts returns how many recorded ticks a run spent in each mode
func (s *Store) ModeCounts(runID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Mode  string
		Count int64
	}
	err := s.db.Model(&TickRecord{}).
		Select("mode, COUNT(*) as count").
		Where("run_id = ?", runID).
		Group("mode").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Mode] = r.Count
	}
	return counts, nil
}
