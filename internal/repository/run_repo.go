package repository

import (
	"context"
	"time"

	"FlightSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngestRunRepository 入库任务审计记录
type IngestRunRepository struct {
	db *gorm.DB
}

func NewIngestRunRepository(db *gorm.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

// Start 新建一条 running 状态的记录
func (r *IngestRunRepository) Start(ctx context.Context, run *model.IngestRun) error {
	if run.RunUUID == "" {
		run.RunUUID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = model.RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// Finish 回写结果
func (r *IngestRunRepository) Finish(ctx context.Context, run *model.IngestRun) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	return r.db.WithContext(ctx).Model(&model.IngestRun{}).
		Where("run_uuid = ?", run.RunUUID).
		Updates(map[string]interface{}{
			"status":       run.Status,
			"flights":      run.Flights,
			"airports":     run.Airports,
			"dropped_rows": run.DroppedRows,
			"error":        run.Error,
			"stats":        run.Stats,
			"finished_at":  run.FinishedAt,
		}).Error
}

// LatestByPeriod 某月最近一次任务
func (r *IngestRunRepository) LatestByPeriod(ctx context.Context, year, month int) (*model.IngestRun, error) {
	var run model.IngestRun
	if err := r.db.WithContext(ctx).
		Where("year = ? AND month = ?", year, month).
		Order("started_at DESC").
		First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
