package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sse"
	"github.com/gin-gonic/gin"
)

// EventsHandler 扫码事件推送
type EventsHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

// connectedEvent 连接成功后的第一条事件
type connectedEvent struct {
	ClientID string `json:"client_id"`
}

func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream 订阅扫码事件，id_carga 为空时接收全部货运
// GET /api/v1/eventos?id_carga=&token=
func (h *EventsHandler) Stream(c *gin.Context) {
	var shipmentID uint64
	if v := c.Query("id_carga"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			BadRequest(c, "ID inválido")
			return
		}
		shipmentID = id
	}

	userID := GetUserID(c)
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())
	client := &sse.Client{
		ID:         clientID,
		UserID:     userID,
		ShipmentID: shipmentID,
		Events:     make(chan sse.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	hello, _ := json.Marshal(connectedEvent{ClientID: clientID})
	c.Writer.WriteString(fmt.Sprintf("event: connected\ndata: %s\n\n", hello))
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
