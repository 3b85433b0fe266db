package transport

import (
	"time"

	"github.com/ds124wfegd/elastix-api/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(handler *ElastixHandler, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	router.POST("/elastix_register", handler.Register)
	router.POST("/elastix_warp", handler.Warp)
	router.POST("/elastix_preview", handler.Preview)

	router.GET("/runs/:id", handler.GetRun)
	router.DELETE("/runs/:id", handler.DeleteRun)
	router.GET("/parameter_maps", handler.ListParameterMaps)
	router.GET("/parameter_maps/:name", handler.GetParameterMap)

	// Health check
	router.GET("/health", handler.Health)
	return router
}
