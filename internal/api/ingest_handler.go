package api

import (
	"errors"
	"net/http"

	"FlightSync/internal/interfaces"
	"FlightSync/internal/model"
	"FlightSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type IngestHandler struct {
	runner interfaces.RangeRunner
	logger *logrus.Logger
}

func NewIngestHandler(runner interfaces.RangeRunner, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{runner: runner, logger: logger}
}

// ingestQuery POST /ingest 查询参数
type ingestQuery struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month" binding:"required"`
	Count *int `form:"count" binding:"omitempty,min=1"`
}

// Ingest 触发一次按月入库
// @Summary 导入 BTS 月度航班数据
// @Param year query int true "起始年份"
// @Param month query int true "起始月份"
// @Param count query int false "连续月份数（默认1）"
// @Success 200 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /ingest [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	var q ingestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}
	count := 1
	if q.Count != nil {
		count = *q.Count
	}

	start := model.NewPeriod(q.Year, q.Month)
	inserted, err := h.runner.RunRange(c.Request.Context(), start, count)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"start": start.String(),
			"count": count,
		}).Error("入库请求失败")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrFutureMonth):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
