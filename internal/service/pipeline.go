package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"FlightSync/internal/config"
	"FlightSync/internal/extract"
	"FlightSync/internal/interfaces"
	"FlightSync/internal/metrics"
	"FlightSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// State 管道状态
type State int

const (
	StateEmpty     State = iota // 未持有批次
	StatePopulated              // 持有未写入的批次（可能为空批次）
)

func (s State) String() string {
	if s == StatePopulated {
		return "populated"
	}
	return "empty"
}

var (
	ErrNoBatch      = errors.New("管道状态不正确：请先调用 ExtractRecords 再写入")
	ErrBatchPending = errors.New("已有未写入的批次：请先写入或调用 Discard")
)

// Pipeline 抽取-加载编排：持有唯一的“当前批次”槽位
// 状态流转 Empty → Populated → Empty，不可并发使用
type Pipeline struct {
	fetcher  interfaces.Fetcher
	store    interfaces.BatchStore
	runs     interfaces.RunRecorder // 可为 nil
	archiver interfaces.Archiver    // 可为 nil
	cfg      *config.PipelineConfig
	logger   *logrus.Logger

	state  State
	period model.Period
	batch  *extract.Batch
}

// NewPipeline 创建管道；runs、archiver 可传 nil
func NewPipeline(
	fetcher interfaces.Fetcher,
	store interfaces.BatchStore,
	runs interfaces.RunRecorder,
	archiver interfaces.Archiver,
	cfg *config.PipelineConfig,
	logger *logrus.Logger,
) *Pipeline {
	if cfg == nil {
		cfg = &config.PipelineConfig{}
	}
	return &Pipeline{
		fetcher:  fetcher,
		store:    store,
		runs:     runs,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger,
	}
}

// State 当前状态
func (p *Pipeline) State() State {
	return p.state
}

// CanWrite 持有批次即可写入（包括 0 条航班的空批次）
func (p *Pipeline) CanWrite() bool {
	return p.state == StatePopulated
}

// Discard 丢弃未写入的批次，返回是否确实丢弃了
func (p *Pipeline) Discard() bool {
	if p.state != StatePopulated {
		return false
	}
	p.logger.WithField("period", p.period.String()).Warn("丢弃未写入的批次")
	p.clear()
	return true
}

func (p *Pipeline) clear() {
	p.batch = nil
	p.period = model.Period{}
	p.state = StateEmpty
}

// ExtractRecords 下载并解析指定月份，结果放入槽位；槽位已有批次时拒绝覆盖
func (p *Pipeline) ExtractRecords(ctx context.Context, year, month int) error {
	if p.state == StatePopulated {
		return fmt.Errorf("%w（待写入: %s）", ErrBatchPending, p.period)
	}
	period := model.NewPeriod(year, month)
	log := p.logger.WithField("period", period.String())

	// 1. 下载
	started := time.Now()
	path, err := p.fetcher.Download(ctx, year, month)
	if err != nil {
		return fmt.Errorf("下载%s失败: %w", period, err)
	}
	metrics.StageDurationSeconds.WithLabelValues("download").Observe(time.Since(started).Seconds())
	// 解析完成后删除本地文件
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("删除下载文件失败")
		}
	}()

	// 2. 解析
	started = time.Now()
	batch, err := extract.ParseFile(path)
	if err != nil {
		return fmt.Errorf("解析%s失败: %w", period, err)
	}
	metrics.StageDurationSeconds.WithLabelValues("parse").Observe(time.Since(started).Seconds())
	metrics.RowsParsedTotal.Add(float64(batch.Len()))
	for reason, n := range batch.DropReasons {
		metrics.RowsDroppedTotal.WithLabelValues(reason).Add(float64(n))
	}
	if batch.Dropped > 0 {
		log.WithFields(logrus.Fields{
			"dropped": batch.Dropped,
			"reasons": batch.DropReasons,
		}).Warn("部分数据行解析失败，已丢弃")
	}
	log.Infof("解析完成，共%d条航班", batch.Len())

	// 3. 可选归档，失败不影响入库
	if p.archiver != nil {
		started = time.Now()
		if err := p.archiver.Archive(ctx, period, batch.Airports(), batch.Flights); err != nil {
			metrics.ArchiveFailuresTotal.Inc()
			log.WithError(err).Warn("批次归档失败")
		} else {
			metrics.StageDurationSeconds.WithLabelValues("archive").Observe(time.Since(started).Seconds())
		}
	}

	p.batch = batch
	p.period = period
	p.state = StatePopulated
	return nil
}

// WriteRecords 将槽位中的批次写库（机场去重后先写，再写航班），成功后清空槽位
func (p *Pipeline) WriteRecords(ctx context.Context) error {
	_, err := p.write(ctx)
	return err
}

// write 返回批次是否真正入库；continue_on_write_error 时写库失败被吞掉，返回 (false, nil)
func (p *Pipeline) write(ctx context.Context) (bool, error) {
	if p.state != StatePopulated {
		return false, ErrNoBatch
	}
	log := p.logger.WithField("period", p.period.String())

	airports := p.batch.Airports()
	started := time.Now()
	if err := p.store.SaveBatch(ctx, airports, p.batch.Flights); err != nil {
		if p.cfg.ContinueOnWriteError {
			log.WithError(err).Error("写库失败，按配置丢弃该批次并继续")
			p.clear()
			return false, nil
		}
		return false, fmt.Errorf("写入%s失败: %w", p.period, err)
	}
	metrics.StageDurationSeconds.WithLabelValues("write").Observe(time.Since(started).Seconds())
	metrics.RecordsWrittenTotal.WithLabelValues("airport").Add(float64(len(airports)))
	metrics.RecordsWrittenTotal.WithLabelValues("flight").Add(float64(len(p.batch.Flights)))

	log.WithFields(logrus.Fields{
		"airports": len(airports),
		"flights":  len(p.batch.Flights),
	}).Info("批次写库完成")
	p.clear()
	return true, nil
}

// Run 抽取 + 写库，返回本月航班记录数
func (p *Pipeline) Run(ctx context.Context, year, month int) (int, error) {
	run := &model.IngestRun{Year: year, Month: month}
	p.startRun(ctx, run)
	started := time.Now()

	if err := p.ExtractRecords(ctx, year, month); err != nil {
		p.finishRun(ctx, run, started, nil, err)
		metrics.RunsTotal.WithLabelValues(model.RunStatusFailed).Inc()
		return 0, err
	}
	batch := p.batch
	n := batch.Len()
	run.Flights = n
	run.Airports = len(batch.Airports())
	run.DroppedRows = batch.Dropped

	written, err := p.write(ctx)
	if err != nil {
		p.finishRun(ctx, run, started, batch, err)
		metrics.RunsTotal.WithLabelValues(model.RunStatusFailed).Inc()
		return 0, err
	}
	if !written {
		p.finishRun(ctx, run, started, batch, errors.New("写库失败，批次已丢弃"))
		metrics.RunsTotal.WithLabelValues(model.RunStatusFailed).Inc()
		return 0, nil
	}

	p.finishRun(ctx, run, started, batch, nil)
	metrics.RunsTotal.WithLabelValues(model.RunStatusSucceeded).Inc()
	return n, nil
}

func (p *Pipeline) startRun(ctx context.Context, run *model.IngestRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Start(ctx, run); err != nil {
		p.logger.WithError(err).Warn("记录入库任务失败")
	}
}

func (p *Pipeline) finishRun(ctx context.Context, run *model.IngestRun, started time.Time, batch *extract.Batch, runErr error) {
	if p.runs == nil || run.RunUUID == "" {
		return
	}
	run.Status = model.RunStatusSucceeded
	if runErr != nil {
		run.Status = model.RunStatusFailed
		msg := runErr.Error()
		run.Error = &msg
	}
	stats := map[string]interface{}{
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if batch != nil {
		stats["drop_reasons"] = batch.DropReasons
	}
	if raw, err := json.Marshal(stats); err == nil {
		run.Stats = datatypes.JSON(raw)
	}
	now := time.Now()
	run.FinishedAt = &now
	if err := p.runs.Finish(ctx, run); err != nil {
		p.logger.WithError(err).WithField("run_uuid", run.RunUUID).Warn("回写入库任务失败")
	}
}
