package interfaces

import (
	"context"

	"FlightSync/internal/model"
)

// Fetcher 下载并解压指定年月的 BTS 数据文件，返回本地 csv 路径（调用方负责删除）
type Fetcher interface {
	Download(ctx context.Context, year, month int) (string, error)
}

// BatchStore 通用入库接口：先机场后航班，重复主键静默忽略
type BatchStore interface {
	SaveBatch(ctx context.Context, airports []*model.Airport, flights []*model.Flight) error
}

// RunRecorder 入库任务审计
type RunRecorder interface {
	Start(ctx context.Context, run *model.IngestRun) error
	Finish(ctx context.Context, run *model.IngestRun) error
}

// Archiver 将一个月的批次另存一份（如 S3 parquet）
type Archiver interface {
	Archive(ctx context.Context, period model.Period, airports []*model.Airport, flights []*model.Flight) error
}

// RangeRunner 从 start 起连续处理 n 个月，返回累计航班记录数
type RangeRunner interface {
	RunRange(ctx context.Context, start model.Period, n int) (int, error)
}

// Pinger 健康检查依赖（*sql.DB 满足）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RunLookup 查询入库任务记录
type RunLookup interface {
	LatestByPeriod(ctx context.Context, year, month int) (*model.IngestRun, error)
}
