package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal 按结果统计的月度任务数
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightsync_runs_total",
			Help: "Total number of monthly ingest runs",
		},
		[]string{"status"}, // succeeded, failed
	)

	// RowsParsedTotal 成功解析的数据行
	RowsParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flightsync_rows_parsed_total",
			Help: "Total number of source rows parsed into records",
		},
	)

	// RowsDroppedTotal 被丢弃的数据行
	RowsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightsync_rows_dropped_total",
			Help: "Total number of source rows discarded during parsing",
		},
		[]string{"reason"}, // missing_column, bad_airport_id, bad_date, malformed_csv
	)

	// RecordsWrittenTotal 提交给数据库的记录数（含冲突被忽略的）
	RecordsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightsync_records_written_total",
			Help: "Total number of records submitted to the store",
		},
		[]string{"entity"}, // airport, flight
	)

	// StageDurationSeconds 各阶段耗时
	StageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flightsync_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms ~ 7min
		},
		[]string{"stage"}, // download, parse, write, archive
	)

	// ArchiveFailuresTotal 归档失败次数
	ArchiveFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flightsync_archive_failures_total",
			Help: "Total number of failed batch archive uploads",
		},
	)
)
