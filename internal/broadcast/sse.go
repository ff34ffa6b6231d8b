package broadcast

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// SSEHandler streams hub events as server-sent events named after the event
type SSEHandler struct {
	hub       *Hub
	keepAlive time.Duration
}

// NewSSEHandler creates a new handler bound to the given Hub
func NewSSEHandler(hub *Hub) *SSEHandler {
	return &SSEHandler{hub: hub, keepAlive: 25 * time.Second}
}

// Stream handles GET /api/v1/queue/events
func (h *SSEHandler) Stream(ctx *gin.Context) {
	client := h.hub.Subscribe()
	defer h.hub.Unregister(client)

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx.SSEvent("connected", client.ID)
	ctx.Writer.Flush()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case frame, ok := <-client.Send:
			if !ok {
				return false
			}
			ctx.SSEvent(frame.Name, string(frame.Data))
			return true
		case <-ticker.C:
			ctx.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
