package broadcast

import (
	"github.com/gin-gonic/gin"
)

// SetupBroadcastRoutes registers the live-update transports. Both are public:
// events are advisory and carry no more than the public status does.
func SetupBroadcastRoutes(rg *gin.RouterGroup, ws *WebSocketHandler, sse *SSEHandler) {
	live := rg.Group("/queue")
	{
		live.GET("/ws", ws.HandleConnect) // GET /api/v1/queue/ws
		live.GET("/events", sse.Stream)   // GET /api/v1/queue/events
	}
}
