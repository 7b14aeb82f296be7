// Package sse fans box scan events out to connected Server-Sent Events clients.
package sse

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const EventScan = "qr_scanned"

// Event 推送给客户端的事件
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// ScanEvent 扫码事件内容
type ScanEvent struct {
	ShipmentID uint64    `json:"id_carga"`
	BoxID      uint64    `json:"id_qr"`
	Code       string    `json:"codigo_qr"`
	Scans      int64     `json:"total_escaneos"`
	ScannedBy  string    `json:"escaneado_por"`
	Location   string    `json:"ubicacion,omitempty"`
	ScannedAt  time.Time `json:"fecha_escaneo"`
}

// Client 已连接的客户端；ShipmentID 为 0 时接收全部货运的事件
type Client struct {
	ID         string
	UserID     string
	ShipmentID uint64
	Events     chan Event
}

// Hub manages connected clients. Slow clients drop events instead of blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Clients 当前连接数
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishScan 推送扫码事件给订阅了该货运的客户端
func (h *Hub) PublishScan(e ScanEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Warn("encode scan event", zap.Error(err))
		return
	}
	event := Event{EventType: EventScan, Data: string(data)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.ShipmentID != 0 && client.ShipmentID != e.ShipmentID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}
