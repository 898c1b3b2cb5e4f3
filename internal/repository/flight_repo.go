package repository

import (
	"context"
	"fmt"

	"FlightSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 1000

// FlightRepository 机场/航班入库，所有写入均为幂等插入（主键冲突静默忽略）
type FlightRepository struct {
	db        *gorm.DB
	batchSize int
}

func NewFlightRepository(db *gorm.DB, batchSize int) *FlightRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &FlightRepository{db: db, batchSize: batchSize}
}

// SaveBatch 在同一事务内先写机场再写航班，任一步失败整体回滚
func (r *FlightRepository) SaveBatch(ctx context.Context, airports []*model.Airport, flights []*model.Flight) error {
	// 开启事务
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	// 1. 保存Airport
	if err := r.saveAirports(tx, airports); err != nil {
		tx.Rollback()
		return err
	}
	// 2. 保存Flight（依赖机场外键，必须在机场之后）
	if err := r.saveFlights(tx, flights); err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// SaveAirports 单独写机场（不开事务）
func (r *FlightRepository) SaveAirports(ctx context.Context, airports []*model.Airport) error {
	return r.saveAirports(r.db.WithContext(ctx), airports)
}

// SaveFlights 单独写航班（不开事务），引用的机场须已存在
func (r *FlightRepository) SaveFlights(ctx context.Context, flights []*model.Flight) error {
	return r.saveFlights(r.db.WithContext(ctx), flights)
}

func (r *FlightRepository) saveAirports(tx *gorm.DB, airports []*model.Airport) error {
	for start := 0; start < len(airports); start += r.batchSize {
		end := min(start+r.batchSize, len(airports))
		if err := insertAirports(tx, airports[start:end]).Error; err != nil {
			return fmt.Errorf("保存Airport失败: %w, 批次起始: %d", err, start)
		}
	}
	return nil
}

func (r *FlightRepository) saveFlights(tx *gorm.DB, flights []*model.Flight) error {
	for start := 0; start < len(flights); start += r.batchSize {
		end := min(start+r.batchSize, len(flights))
		if err := insertFlights(tx, flights[start:end]).Error; err != nil {
			return fmt.Errorf("保存Flight失败: %w, 批次起始: %d", err, start)
		}
	}
	return nil
}

// insertAirports INSERT ... ON CONFLICT DO NOTHING
func insertAirports(tx *gorm.DB, airports []*model.Airport) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&airports)
}

func insertFlights(tx *gorm.DB, flights []*model.Flight) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&flights)
}

// CountAirports 机场表行数
func (r *FlightRepository) CountAirports(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Airport{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CountFlights 航班表行数
func (r *FlightRepository) CountFlights(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Flight{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
