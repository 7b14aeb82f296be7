package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sheet"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/shared/storage"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ImportOptions 导入参数
type ImportOptions struct {
	HeaderRow     int
	MaxBytes      int64
	DisplayLength int
	Validator     sheet.Validator
}

// Prefill 表单预填：第一条有效行的电话和目的地
type Prefill struct {
	Phone       string `json:"telefono_cliente"`
	Destination string `json:"direccion_destino"`
	SourceFile  string `json:"archivo_original"`
}

// ImportResult 解析结果
type ImportResult struct {
	Headers   []string         `json:"encabezados"`
	Rows      []sheet.Row      `json:"filas"`
	ErrorRows []sheet.ErrorRow `json:"filas_con_error"`
	Stats     sheet.Stats      `json:"estadisticas"`
	Repaired  bool             `json:"encabezados_reparados"`
	Prefill   Prefill          `json:"prellenado"`
	Photos    int              `json:"fotos"`
	Stored    int              `json:"fotos_guardadas"`
}

type ImportService struct {
	opts   ImportOptions
	store  storage.ObjectStore
	logger *zap.Logger
	now    nowFunc
}

// NewImportService store 为 nil 时跳过图片上传
func NewImportService(opts ImportOptions, store storage.ObjectStore, logger *zap.Logger) *ImportService {
	if opts.HeaderRow <= 0 {
		opts.HeaderRow = 1
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = sheet.MaxUploadBytes
	}
	return &ImportService{opts: opts, store: store, logger: logger, now: time.Now}
}

// Import checks the upload, reads its first sheet and normalizes the rows.
// Embedded photos are moved to object storage and their cells replaced by the object key.
func (s *ImportService) Import(ctx context.Context, up sheet.Upload, r io.Reader) (*ImportResult, error) {
	if err := sheet.CheckUpload(up, s.opts.MaxBytes); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, &sheet.SizeError{Size: int64(len(data)), Limit: s.opts.MaxBytes}
	}

	wb, err := sheet.ReadWorkbook(bytes.NewReader(data), s.opts.HeaderRow)
	if err != nil {
		s.logger.Warn("unreadable workbook", zap.String("file", up.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSheet, err)
	}
	if len(wb.Grid) < 2 {
		return nil, ErrEmptySheet
	}

	stored := s.storePhotos(ctx, wb)

	n := &sheet.Normalizer{
		Validator:     s.opts.Validator,
		Offset:        wb.Offset,
		DisplayLength: s.opts.DisplayLength,
	}
	table := n.Normalize(wb.Grid)
	rows := table.Valid()
	if rows == nil {
		rows = []sheet.Row{}
	}
	errorRows := table.ErrorRows()
	if errorRows == nil {
		errorRows = []sheet.ErrorRow{}
	}

	res := &ImportResult{
		Headers:   table.Headers,
		Rows:      rows,
		ErrorRows: errorRows,
		Stats:     table.Stats,
		Repaired:  table.Repaired(),
		Prefill:   prefill(table, up.Name),
		Photos:    len(wb.Photos),
		Stored:    stored,
	}
	s.logger.Info("packing list processed",
		zap.String("file", up.Name),
		zap.String("sheet", wb.SheetName),
		zap.Int("total_rows", table.Stats.TotalRows),
		zap.Int("valid_rows", table.Stats.ValidRows),
		zap.Int("error_rows", table.Stats.ErrorRows),
		zap.Int("photos", stored),
	)
	return res, nil
}

// storePhotos 上传失败只记录日志，单元格保持原值
func (s *ImportService) storePhotos(ctx context.Context, wb *sheet.Workbook) int {
	if s.store == nil || len(wb.Photos) == 0 {
		return 0
	}
	stored := 0
	for _, p := range wb.Photos {
		ext := strings.ToLower(p.Extension)
		name := fmt.Sprintf("%s-%d-%d%s", uuid.NewString(), p.Row+1, p.Col+1, ext)
		key := storage.Key("fotos", name, s.now())
		err := s.store.Put(ctx, key, bytes.NewReader(p.Data), int64(len(p.Data)), imageType(ext))
		if err != nil {
			s.logger.Warn("store photo failed", zap.String("key", key), zap.Error(err))
			continue
		}
		wb.SetCell(p.Row, p.Col, sheet.TextCell(key))
		stored++
	}
	return stored
}

func imageType(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func prefill(t *sheet.Table, filename string) Prefill {
	p := Prefill{SourceFile: filename}
	for _, row := range t.Rows() {
		p.Phone = strings.TrimSpace(row.At(sheet.ColPhone).String())
		p.Destination = strings.TrimSpace(row.At(sheet.ColDestination).String())
		break
	}
	return p
}

// Template 生成空白装箱单模板
func (s *ImportService) Template() (*excelize.File, error) {
	return sheet.Template(s.opts.HeaderRow)
}
