package api

import (
	"errors"
	"net/http"

	"FlightSync/internal/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RunHandler struct {
	runs   interfaces.RunLookup
	logger *logrus.Logger
}

func NewRunHandler(runs interfaces.RunLookup, logger *logrus.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: logger}
}

type runQuery struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// LatestRun 查询某月最近一次入库任务
// @Router /runs/latest [get]
func (h *RunHandler) LatestRun(c *gin.Context) {
	var q runQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	run, err := h.runs.LatestByPeriod(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "未找到该月份的入库记录"})
			return
		}
		h.logger.WithError(err).Error("查询入库任务失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
