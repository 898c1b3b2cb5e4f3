package service

import (
	"context"
	"errors"
	"time"

	"FlightSync/internal/model"

	"github.com/sirupsen/logrus"
)

var ErrRunInProgress = errors.New("已有入库任务在执行")

// Runner 按连续月份驱动 Pipeline，任一月份失败即终止
type Runner struct {
	pipeline *Pipeline
	logger   *logrus.Logger
	now      func() time.Time
	running  chan struct{}
}

func NewRunner(pipeline *Pipeline, logger *logrus.Logger) *Runner {
	return &Runner{
		pipeline: pipeline,
		logger:   logger,
		now:      time.Now,
		running:  make(chan struct{}, 1),
	}
}

// RunRange 从 start 起处理 n 个连续月份，返回累计航班记录数
// 出错时返回已累计的数量与错误，调用方不应把该数量当作成功结果
func (r *Runner) RunRange(ctx context.Context, start model.Period, n int) (int, error) {
	if err := ValidatePeriod(start); err != nil {
		return 0, err
	}
	if err := ValidateCount(n); err != nil {
		return 0, err
	}

	select {
	case r.running <- struct{}{}:
		defer func() { <-r.running }()
	default:
		return 0, ErrRunInProgress
	}

	total := 0
	period := start
	for i := 0; i < n; i++ {
		if err := ValidateNotFuture(period, r.now()); err != nil {
			return total, err
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}

		inserted, err := r.pipeline.Run(ctx, period.Year, period.Month)
		if err != nil {
			// 失败的批次不留在槽位里，保证后续任务可用；槽位里原有的待写批次不属于本次任务
			if !errors.Is(err, ErrBatchPending) {
				r.pipeline.Discard()
			}
			r.logger.WithError(err).WithField("period", period.String()).Error("月度入库失败，终止本次任务")
			return total, err
		}
		total += inserted
		r.logger.WithFields(logrus.Fields{
			"period":   period.String(),
			"inserted": inserted,
			"total":    total,
		}).Info("月度入库完成")
		period = period.Next()
	}
	return total, nil
}
