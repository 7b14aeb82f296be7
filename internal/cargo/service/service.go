package service

import (
	"errors"
	"strings"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/codegen"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/label"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/repository"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sheet"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sse"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/config"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/shared/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrNotFound        = repository.ErrNotFound
	ErrDuplicateCode   = repository.ErrDuplicateCode
	ErrDocumentBuild   = errors.New("document build failed")
	ErrStorageDisabled = storage.ErrDisabled
	ErrEmptySheet      = errors.New("El archivo no contiene datos")
	ErrUnreadableSheet = errors.New("No se pudo leer el archivo Excel")
)

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"campo"`
	Message string `json:"mensaje"`
}

// ValidationError is returned before any write when a save request is incomplete.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// Services 服务集合
type Services struct {
	Shipment *ShipmentService
	QR       *QRService
	Document *DocumentService
	Import   *ImportService
	Events   *sse.Hub
}

// NewServices 创建服务集合。rdb 和 store 可以为 nil
func NewServices(repos *repository.Repositories, rdb *redis.Client, store storage.ObjectStore, cfg *config.Config, logger *zap.Logger) *Services {
	genOpts := []codegen.Option{
		codegen.WithLogger(logger.Named("codegen")),
		codegen.WithPrefix(cfg.Codegen.Prefix),
		codegen.WithAttempts(cfg.Codegen.Attempts),
	}
	var cache PNGCache
	if rdb != nil {
		genOpts = append(genOpts, codegen.WithLedger(codegen.NewRedisLedger(rdb, cfg.Codegen.LedgerTTL)))
		cache = NewRedisPNGCache(rdb, cfg.QR.CacheTTL)
	}
	codes := codegen.New(repos.Shipment, genOpts...)

	renderer := &label.Renderer{
		DefaultWidth: cfg.QR.DefaultWidth,
		MinWidth:     cfg.QR.MinWidth,
		MaxWidth:     cfg.QR.MaxWidth,
		Level:        label.NewRenderer().Level,
	}

	events := sse.NewHub(logger.Named("sse"))
	qr := NewQRService(repos.Shipment, renderer, cache, logger)
	qr.PublishScansTo(events)
	return &Services{
		Events:   events,
		Shipment: NewShipmentService(repos.Shipment, codes, logger),
		QR:       qr,
		Document: NewDocumentService(repos.Shipment, qr, label.NewAssembler(renderer), store, cfg.Storage.PresignExpire, logger),
		Import: NewImportService(ImportOptions{
			HeaderRow:     cfg.Sheet.HeaderRow,
			MaxBytes:      int64(cfg.Sheet.MaxUploadMB) << 20,
			DisplayLength: cfg.Sheet.DisplayLength,
			Validator:     sheet.DefaultRules(),
		}, store, logger),
	}
}

// nowFunc 便于测试替换
type nowFunc func() time.Time
