package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/entity"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/label"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/shared/storage"
	"go.uber.org/zap"
)

// ShipmentFinder 文档服务只需要按 ID 查货运
type ShipmentFinder interface {
	FindByID(ctx context.Context, id uint64) (*entity.Shipment, error)
}

// ArchivedDocument 已归档的 PDF
type ArchivedDocument struct {
	Key      string `json:"clave"`
	Filename string `json:"archivo"`
	URL      string `json:"url"`
	Pages    int    `json:"paginas"`
	Size     int    `json:"tamano"`
}

type DocumentService struct {
	shipments ShipmentFinder
	qr        *QRService
	assembler *label.Assembler
	store     storage.ObjectStore
	presign   time.Duration
	logger    *zap.Logger
	now       nowFunc
}

// NewDocumentService store 可以为 nil，此时不能归档
func NewDocumentService(shipments ShipmentFinder, qr *QRService, assembler *label.Assembler, store storage.ObjectStore, presign time.Duration, logger *zap.Logger) *DocumentService {
	if presign <= 0 {
		presign = time.Hour
	}
	return &DocumentService{
		shipments: shipments,
		qr:        qr,
		assembler: assembler,
		store:     store,
		presign:   presign,
		logger:    logger,
		now:       time.Now,
	}
}

// Build produces the printable QR document for a shipment, in item order.
func (s *DocumentService) Build(ctx context.Context, shipmentID uint64, compact bool) (*label.Document, error) {
	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	records, err := s.qr.List(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	doc, err := s.assembler.Build(label.Sheet{
		Code:        shipment.Code,
		Client:      shipment.Client.Name,
		Destination: shipment.Destination,
		GeneratedAt: s.now(),
		Records:     records,
		Compact:     compact,
	})
	if err != nil {
		s.logger.Error("build qr document failed",
			zap.Uint64("id_carga", shipmentID),
			zap.Bool("compact", compact),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrDocumentBuild, err)
	}
	s.logger.Info("qr document built",
		zap.Uint64("id_carga", shipmentID),
		zap.Int("qrs", len(records)),
		zap.Int("pages", doc.Pages),
	)
	return doc, nil
}

// Archive builds the document, stores it and returns a presigned download link.
func (s *DocumentService) Archive(ctx context.Context, shipmentID uint64, compact bool) (*ArchivedDocument, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	doc, err := s.Build(ctx, shipmentID, compact)
	if err != nil {
		return nil, err
	}
	key := storage.Key("pdf", doc.Filename, s.now())
	if err := s.store.Put(ctx, key, bytes.NewReader(doc.Data), int64(len(doc.Data)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	url, err := s.store.URL(ctx, key, s.presign)
	if err != nil {
		return nil, fmt.Errorf("presign document: %w", err)
	}
	return &ArchivedDocument{Key: key, Filename: doc.Filename, URL: url, Pages: doc.Pages, Size: len(doc.Data)}, nil
}
