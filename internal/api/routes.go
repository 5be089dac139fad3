package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	router.GET("/properties", handler.ListProperties)
	router.GET("/properties/search", handler.SearchProperty)
	router.GET("/properties/:id", handler.GetProperty)
	router.POST("/properties", handler.CreateProperty)
	router.PUT("/properties/:id", handler.UpdateProperty)
	router.DELETE("/properties/:id", handler.DeleteProperty)

	router.GET("/stats", handler.GetStats)
}
