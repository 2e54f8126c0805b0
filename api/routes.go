package api

import (
	"github.com/NethermindEth/basesociety/api/handlers"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SetupRoutes initializes all API endpoints
func SetupRoutes(router *gin.Engine, h *handlers.Handler, hub *communication.WebSocketManager, logger zerolog.Logger) {
	router.GET("/", h.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if hub != nil {
		router.GET("/ws", handlers.WebSocket(hub, logger))
	}

	agents := router.Group("/agents")
	{
		agents.POST("", h.LaunchAgent)
		agents.GET("", h.ListAgents)
		agents.GET("/:id", h.GetAgent)
		agents.DELETE("/:id", h.DeleteAgent)
		agents.POST("/:id/interact", h.InteractAgent)
		agents.GET("/:id/history", h.GetHistory)
	}
}
