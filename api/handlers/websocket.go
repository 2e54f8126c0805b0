package handlers

import (
	"net/http"

	"github.com/NethermindEth/basesociety/communication"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// WebSocket streams agent events to connected clients.
func WebSocket(hub *communication.WebSocketManager, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to upgrade connection")
			return
		}

		if !hub.Join(conn) {
			return
		}

		// the client never sends anything; a read error means it went away
		go func() {
			defer hub.Leave(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
