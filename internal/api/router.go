package api

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册全部路由；gin 模式由调用方设置
func NewRouter(ingest *IngestHandler, runs *RunHandler, health *HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)

	r.POST("/ingest", ingest.Ingest)
	r.GET("/runs/latest", runs.LatestRun)
	r.GET("/healthz", health.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
