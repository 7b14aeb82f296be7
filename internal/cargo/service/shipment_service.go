package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/codegen"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/entity"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/repository"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxBoxesPerArticle 单行箱数上限
const MaxBoxesPerArticle = 10000

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ShipmentStore is the persistence the shipment service needs.
type ShipmentStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, s *entity.Shipment) error
	FindByID(ctx context.Context, id uint64) (*entity.Shipment, error)
	FindByCode(ctx context.Context, code string) (*entity.Shipment, error)
	ListArticles(ctx context.Context, shipmentID uint64) ([]entity.Article, error)
	List(ctx context.Context, q string, page, pageSize int) ([]repository.ShipmentSummary, int64, error)
}

// ClientInput 客户信息
type ClientInput struct {
	Name            string `json:"nombre_cliente"`
	Email           string `json:"correo_cliente"`
	Phone           string `json:"telefono_cliente"`
	DeliveryAddress string `json:"direccion_entrega"`
}

// ShipmentInput 货运信息
type ShipmentInput struct {
	Code        string `json:"codigo_carga"`
	Destination string `json:"direccion_destino"`
	SourceFile  string `json:"archivo_original"`
	Container   string `json:"contenedor_asociado"`
	Notes       string `json:"observaciones"`
}

// SaveShipmentRequest 保存装箱单
type SaveShipmentRequest struct {
	Client   ClientInput   `json:"cliente"`
	Shipment ShipmentInput `json:"carga"`
	Headers  []string      `json:"encabezados"`
	Rows     []sheet.Row   `json:"filas"`
	Stats    sheet.Stats   `json:"estadisticas"`
}

// SaveResult 保存结果
type SaveResult struct {
	ShipmentID uint64 `json:"id_carga"`
	Code       string `json:"codigo_carga"`
	Articles   int    `json:"articulos"`
	Boxes      int    `json:"cajas"`
}

type ShipmentService struct {
	store  ShipmentStore
	codes  *codegen.Generator
	logger *zap.Logger
}

func NewShipmentService(store ShipmentStore, codes *codegen.Generator, logger *zap.Logger) *ShipmentService {
	return &ShipmentService{store: store, codes: codes, logger: logger}
}

// GenerateCode 生成货运编码，远端失败时本地兜底
func (s *ShipmentService) GenerateCode(ctx context.Context) codegen.Result {
	res := s.codes.Generate(ctx)
	if res.Strategy == codegen.StrategyFallback {
		s.logger.Info("shipment code issued by fallback", zap.String("code", res.Code))
	}
	return res
}

// Save validates the request, expands every article into its boxes and stores everything atomically.
func (s *ShipmentService) Save(ctx context.Context, userID string, req *SaveShipmentRequest) (*SaveResult, error) {
	verr := validateRequest(req)
	code := strings.TrimSpace(req.Shipment.Code)

	layout := sheet.ResolveLayout(req.Headers)
	if len(req.Headers) == 0 {
		layout = sheet.DefaultLayout()
	}

	var articles []entity.Article
	empty := 0
	for i, row := range req.Rows {
		if row.IsEmpty() {
			empty++
			continue
		}
		a, errs := buildArticle(layout, row, len(articles)+1, i)
		for _, fe := range errs {
			verr.add(fe.Field, fe.Message)
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		verr.add("filas", "El packing list no contiene filas válidas")
	}
	stats := importStats(req.Stats, len(articles), empty, verr)
	if !verr.empty() {
		return nil, verr
	}

	exists, err := s.store.CodeExists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check shipment code: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}

	shipment := &entity.Shipment{
		Code: code,
		Client: entity.Client{
			Name:            strings.TrimSpace(req.Client.Name),
			Email:           strings.TrimSpace(req.Client.Email),
			Phone:           strings.TrimSpace(req.Client.Phone),
			DeliveryAddress: strings.TrimSpace(req.Client.DeliveryAddress),
		},
		Destination: strings.TrimSpace(req.Shipment.Destination),
		SourceFile:  req.Shipment.SourceFile,
		Container:   req.Shipment.Container,
		Notes:       req.Shipment.Notes,
		Status:      entity.ShipmentStatusWarehouse,
		CreatedBy:   userID,
		Stats:       stats,
	}

	boxes := 0
	for i := range articles {
		articles[i].Boxes = expandBoxes(shipment, &articles[i])
		boxes += len(articles[i].Boxes)
	}
	shipment.Articles = articles

	if err := s.store.Create(ctx, shipment); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
		return nil, fmt.Errorf("save shipment: %w", err)
	}

	s.logger.Info("shipment saved",
		zap.Uint64("id_carga", shipment.ID),
		zap.String("codigo_carga", shipment.Code),
		zap.Int("articulos", len(articles)),
		zap.Int("cajas", boxes),
		zap.String("user_id", userID),
	)
	return &SaveResult{ShipmentID: shipment.ID, Code: shipment.Code, Articles: len(articles), Boxes: boxes}, nil
}

func validateRequest(req *SaveShipmentRequest) *ValidationError {
	verr := &ValidationError{}
	c := req.Client
	if strings.TrimSpace(c.Name) == "" {
		verr.add("nombre_cliente", "El nombre del cliente es requerido")
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		verr.add("correo_cliente", "El correo electrónico del cliente es requerido")
	} else if !emailPattern.MatchString(email) {
		verr.add("correo_cliente", "El correo electrónico no tiene un formato válido")
	}
	if phone := strings.TrimSpace(c.Phone); phone == "" {
		verr.add("telefono_cliente", "El teléfono del cliente es requerido")
	} else if utf8.RuneCountInString(phone) > entity.MaxPhoneLength {
		verr.add("telefono_cliente", fmt.Sprintf("El teléfono no puede superar %d caracteres", entity.MaxPhoneLength))
	}
	if strings.TrimSpace(c.DeliveryAddress) == "" {
		verr.add("direccion_entrega", "La dirección de entrega de mercancía es requerida")
	}
	if code := strings.TrimSpace(req.Shipment.Code); code == "" {
		verr.add("codigo_carga", "El código del packing list es requerido")
	} else if utf8.RuneCountInString(code) > entity.MaxCodeLength {
		verr.add("codigo_carga", fmt.Sprintf("El código del packing list no puede superar %d caracteres", entity.MaxCodeLength))
	}
	if strings.TrimSpace(req.Shipment.Destination) == "" {
		verr.add("direccion_destino", "La dirección de destino es requerida")
	}
	return verr
}

// importStats 未提供统计时按行计算；提供时必须自洽且覆盖保存的行
func importStats(in sheet.Stats, articles, empty int, verr *ValidationError) entity.ImportStats {
	if in == (sheet.Stats{}) {
		return entity.ImportStats{
			TotalRows: articles + empty,
			ValidRows: articles,
			EmptyRows: empty,
		}
	}
	switch {
	case in.TotalRows < 0 || in.ValidRows < 0 || in.ErrorRows < 0 || in.EmptyRows < 0:
		verr.add("estadisticas", "Las estadísticas no pueden ser negativas")
	case in.ValidRows+in.ErrorRows+in.EmptyRows != in.TotalRows:
		verr.add("estadisticas", fmt.Sprintf("Estadísticas inconsistentes: %d válidas + %d con error + %d vacías no suman %d filas",
			in.ValidRows, in.ErrorRows, in.EmptyRows, in.TotalRows))
	case in.ValidRows < articles:
		verr.add("estadisticas", fmt.Sprintf("Estadísticas inconsistentes: %d filas válidas declaradas para %d artículos", in.ValidRows, articles))
	}
	return entity.ImportStats{
		TotalRows:  in.TotalRows,
		ValidRows:  in.ValidRows,
		ErrorRows:  in.ErrorRows,
		EmptyRows:  in.EmptyRows,
		Columns:    in.Columns,
		HeaderRows: in.HeaderRows,
	}
}

func buildArticle(l sheet.Layout, row sheet.Row, position, index int) (entity.Article, []FieldError) {
	var errs []FieldError
	text := func(col int) string {
		return strings.TrimSpace(l.Cell(row, col).String())
	}
	num := func(col int, name string) decimal.Decimal {
		c := l.Cell(row, col)
		if c.IsEmpty() {
			return decimal.Zero
		}
		f, ok := c.Number()
		if !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("filas[%d].%s", index, name),
				Message: fmt.Sprintf("Fila %d: valor no numérico en %s", index+1, name),
			})
			return decimal.Zero
		}
		return decimal.NewFromFloat(f)
	}

	a := entity.Article{
		Position:      position,
		Date:          text(sheet.ColDate),
		ClientMark:    text(sheet.ColClientMark),
		ImageURL:      text(sheet.ColPhoto),
		CN:            text(sheet.ColCN),
		Ref:           text(sheet.ColRef),
		Description:   text(sheet.ColDescription),
		DescriptionCN: text(sheet.ColDescriptionCN),
		Unit:          text(sheet.ColUnit),
		UnitPrice:     num(sheet.ColUnitPrice, "precio_unidad"),
		TotalPrice:    num(sheet.ColTotalPrice, "precio_total"),
		Material:      text(sheet.ColMaterial),
		PackUnits:     text(sheet.ColPackUnits),
		Brand:         text(sheet.ColBrand),
		QtyPerBox:     num(sheet.ColQtyPerBox, "cant_por_caja"),
		QtyTotal:      num(sheet.ColQtyTotal, "cant_total"),
		Length:        num(sheet.ColLength, "medida_largo"),
		Width:         num(sheet.ColWidth, "medida_ancho"),
		Height:        num(sheet.ColHeight, "medida_alto"),
		CBM:           num(sheet.ColCBM, "cbm"),
		CBMTotal:      num(sheet.ColCBMTotal, "cbm_total"),
		Weight:        num(sheet.ColWeight, "gw"),
		WeightTotal:   num(sheet.ColWeightTotal, "gw_total"),
		Serial:        text(sheet.ColSerial),
	}

	count, ferr := boxCount(l.Cell(row, sheet.ColBoxes), index)
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	a.BoxCount = count
	return a, errs
}

// boxCount: blank means one box, zero means none.
func boxCount(c sheet.Cell, index int) (int, *FieldError) {
	if c.IsEmpty() {
		return 1, nil
	}
	f, ok := c.Number()
	if !ok || f < 0 || f != math.Trunc(f) || f > MaxBoxesPerArticle {
		return 0, &FieldError{
			Field:   fmt.Sprintf("filas[%d].cantidad_cajas", index),
			Message: fmt.Sprintf("Fila %d: cantidad de cajas inválida (%s)", index+1, c.String()),
		}
	}
	return int(f), nil
}

func expandBoxes(s *entity.Shipment, a *entity.Article) []entity.Box {
	n := a.BoxCount
	if n <= 0 {
		return nil
	}
	desc := a.Description
	if desc == "" {
		desc = a.Ref
	}
	boxes := make([]entity.Box, n)
	for i := range boxes {
		number := i + 1
		code := fmt.Sprintf("QRD_%s_%d_%d_%s", s.Code, a.Position, number, uuid.New().String()[:8])
		boxes[i] = entity.Box{
			Number: number,
			Total:  n,
			Code:   code,
			Payload: entity.BoxPayload{
				Code:        code,
				Number:      number,
				Total:       n,
				Shipment:    s.Code,
				Description: desc,
				Ref:         a.Ref,
				Destination: s.Destination,
				Weight:      a.Weight.String(),
				CBM:         a.CBM.String(),
				ImageURL:    a.ImageURL,
				Version:     entity.BoxPayloadVersion,
			},
		}
	}
	return boxes
}

// Get 货运及其行
func (s *ShipmentService) Get(ctx context.Context, id uint64) (*entity.Shipment, error) {
	shipment, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	articles, err := s.store.ListArticles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	shipment.Articles = articles
	return shipment, nil
}

func (s *ShipmentService) GetByCode(ctx context.Context, code string) (*entity.Shipment, error) {
	return s.store.FindByCode(ctx, strings.TrimSpace(code))
}

func (s *ShipmentService) List(ctx context.Context, q string, page, pageSize int) ([]repository.ShipmentSummary, int64, error) {
	return s.store.List(ctx, strings.TrimSpace(q), page, pageSize)
}
