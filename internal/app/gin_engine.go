package app

import (
	"github.com/gin-gonic/gin"

	"BakeryStore/pkg/logger"
	"BakeryStore/pkg/metrics"
)

func NewGinEngine(l *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(logger.CorrelationMiddleware(), metrics.GinMiddleware(), l.GinBodyLogger(), gin.Recovery())
	return engine
}
