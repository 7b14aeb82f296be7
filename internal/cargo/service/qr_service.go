package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/entity"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/label"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sse"
	"go.uber.org/zap"
)

// BoxStore is the persistence the QR service needs.
type BoxStore interface {
	FindByID(ctx context.Context, id uint64) (*entity.Shipment, error)
	ListBoxes(ctx context.Context, shipmentID uint64) ([]entity.BoxListing, error)
	FindBox(ctx context.Context, id uint64) (*entity.Box, error)
	FindBoxByCode(ctx context.Context, code string) (*entity.Box, error)
	RecordScan(ctx context.Context, scan *entity.BoxScan) (int64, error)
}

// QRImage 渲染好的二维码
type QRImage struct {
	BoxID uint64
	Width int
	PNG   []byte
}

// ScanRequest 扫码请求，codigo_qr 可以是原始编码或完整 JSON 内容
type ScanRequest struct {
	Code     string `json:"codigo_qr" binding:"required"`
	Location string `json:"ubicacion"`
}

// ScanResult 扫码结果
type ScanResult struct {
	Box   *entity.Box `json:"qr"`
	Scans int64       `json:"total_escaneos"`
}

// ScanPublisher 扫码事件推送
type ScanPublisher interface {
	PublishScan(e sse.ScanEvent)
}

type QRService struct {
	store    BoxStore
	renderer *label.Renderer
	cache    PNGCache
	events   ScanPublisher
	logger   *zap.Logger
	now      nowFunc
}

// NewQRService cache 可以为 nil
func NewQRService(store BoxStore, renderer *label.Renderer, cache PNGCache, logger *zap.Logger) *QRService {
	if renderer == nil {
		renderer = label.NewRenderer()
	}
	return &QRService{store: store, renderer: renderer, cache: cache, logger: logger, now: time.Now}
}

// PublishScansTo 设置扫码事件的接收方
func (s *QRService) PublishScansTo(p ScanPublisher) {
	s.events = p
}

// List returns a shipment's boxes with display item numbers.
// A shipment without boxes yields an empty list, an unknown shipment ErrNotFound.
func (s *QRService) List(ctx context.Context, shipmentID uint64) ([]label.DisplayRecord, error) {
	if _, err := s.store.FindByID(ctx, shipmentID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListBoxes(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	return label.Renumber(toRecords(rows)), nil
}

func toRecords(rows []entity.BoxListing) []label.Record {
	records := make([]label.Record, len(rows))
	for i, r := range rows {
		records[i] = label.Record{
			BoxID:       r.BoxID,
			ArticleID:   r.ArticleID,
			Number:      r.Number,
			Total:       r.Total,
			Code:        r.Code,
			Content:     r.Payload.Content(),
			Description: r.Description,
			Ref:         r.Ref,
		}
	}
	return records
}

// Render 渲染单个箱子的二维码 PNG，宽度会被限制在允许范围内
func (s *QRService) Render(ctx context.Context, boxID uint64, width int) (*QRImage, error) {
	w := s.renderer.Width(width)
	if s.cache != nil {
		if png, ok := s.cache.Get(ctx, boxID, w); ok {
			return &QRImage{BoxID: boxID, Width: w, PNG: png}, nil
		}
	}

	box, err := s.store.FindBox(ctx, boxID)
	if err != nil {
		return nil, err
	}
	content := box.Payload.Content()
	if content == "" {
		content = box.Code
	}
	png, err := s.renderer.PNG(content, w)
	if err != nil {
		return nil, fmt.Errorf("render qr %d: %w", boxID, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, boxID, w, png)
	}
	return &QRImage{BoxID: boxID, Width: w, PNG: png}, nil
}

// Scan resolves a scanned code and appends a scan record.
func (s *QRService) Scan(ctx context.Context, userID string, req ScanRequest) (*ScanResult, error) {
	code := scannedCode(req.Code)
	if code == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "codigo_qr", Message: "El código QR es requerido"}}}
	}
	box, err := s.store.FindBoxByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	scan := &entity.BoxScan{
		BoxID:     box.ID,
		ScannedBy: userID,
		Location:  strings.TrimSpace(req.Location),
		ScannedAt: s.now(),
	}
	count, err := s.store.RecordScan(ctx, scan)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	if s.events != nil {
		s.events.PublishScan(sse.ScanEvent{
			ShipmentID: box.ShipmentID,
			BoxID:      box.ID,
			Code:       box.Code,
			Scans:      count,
			ScannedBy:  userID,
			Location:   scan.Location,
			ScannedAt:  scan.ScannedAt,
		})
	}
	s.logger.Info("box scanned",
		zap.Uint64("id_qr", box.ID),
		zap.String("codigo_qr", box.Code),
		zap.Int64("total_escaneos", count),
	)
	return &ScanResult{Box: box, Scans: count}, nil
}

// scannedCode accepts either the raw code or the JSON payload printed in the image.
func scannedCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw
	}
	var p entity.BoxPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return raw
	}
	return strings.TrimSpace(p.Code)
}

// IsNotFound 是否为未找到
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
