// Package cache keeps a local sqlite snapshot of the consultant's
// pipelines and stages. The snapshot warms the dashboard between
// process restarts so the shell renders immediately while the first
// fetch is in flight. It is advisory only; every displayed number still
// comes from the remote API.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// snapshotRecord is one cached pipeline, stages included, stored as a
// JSON payload keyed by pipeline id.
type snapshotRecord struct {
	PipelineID string `gorm:"primaryKey"`
	Payload    []byte
	UpdatedAt  time.Time
}

func (snapshotRecord) TableName() string { return "pipeline_snapshots" }

// Snapshot is the sqlite-backed warm-start cache.
type Snapshot struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the snapshot database at path.
func Open(path string, logger *zap.Logger) (*Snapshot, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	if err := db.AutoMigrate(&snapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}

	return &Snapshot{db: db, logger: logger}, nil
}

// SaveAll replaces the cached set with the given pipelines.
func (s *Snapshot) SaveAll(pipelines []domain.Pipeline) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&snapshotRecord{}).Error; err != nil {
			return err
		}
		for i := range pipelines {
			payload, err := json.Marshal(&pipelines[i])
			if err != nil {
				return fmt.Errorf("failed to encode pipeline %s: %w", pipelines[i].ID, err)
			}
			rec := snapshotRecord{
				PipelineID: pipelines[i].ID,
				Payload:    payload,
				UpdatedAt:  time.Now().UTC(),
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll returns the cached pipelines. A record that fails to decode
// is skipped with a warning; a stale-format row must not block startup.
func (s *Snapshot) LoadAll() ([]domain.Pipeline, error) {
	var records []snapshotRecord
	if err := s.db.Order("pipeline_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	pipelines := make([]domain.Pipeline, 0, len(records))
	for _, rec := range records {
		var p domain.Pipeline
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			s.logger.Warn("skipping undecodable snapshot record",
				zap.String("pipeline_id", rec.PipelineID),
				zap.Error(err),
			)
			continue
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

// Close releases the underlying database handle.
func (s *Snapshot) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
