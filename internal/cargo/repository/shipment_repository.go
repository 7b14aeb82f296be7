package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	articleBatchSize = 200
	boxBatchSize     = 500
)

// ShipmentRepository 货运仓库
type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// NextCode 从数据库序列生成货运编码
func (r *ShipmentRepository) NextCode(ctx context.Context) (string, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('carga_code_seq')").Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PL-%s-%06d", time.Now().Format("20060102"), seq), nil
}

func (r *ShipmentRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Shipment{}).Where("codigo_carga = ?", code).Count(&count).Error
	return count > 0, err
}

// Create writes the shipment, its articles and every box in one transaction.
// Either all rows become visible or none do.
func (r *ShipmentRepository) Create(ctx context.Context, s *entity.Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(s).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("create shipment: %w", err)
		}
		if len(s.Articles) == 0 {
			return nil
		}

		for i := range s.Articles {
			s.Articles[i].ShipmentID = s.ID
		}
		if err := tx.Omit("Boxes").CreateInBatches(&s.Articles, articleBatchSize).Error; err != nil {
			return fmt.Errorf("create articles: %w", err)
		}

		var boxes []entity.Box
		for i := range s.Articles {
			a := &s.Articles[i]
			for j := range a.Boxes {
				a.Boxes[j].ArticleID = a.ID
				a.Boxes[j].ShipmentID = s.ID
			}
			boxes = append(boxes, a.Boxes...)
		}
		if len(boxes) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&boxes, boxBatchSize).Error; err != nil {
			return fmt.Errorf("create boxes: %w", err)
		}

		// 回填ID
		k := 0
		for i := range s.Articles {
			for j := range s.Articles[i].Boxes {
				s.Articles[i].Boxes[j].ID = boxes[k].ID
				k++
			}
		}
		return nil
	})
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id uint64) (*entity.Shipment, error) {
	var s entity.Shipment
	err := r.db.WithContext(ctx).First(&s, "id_carga = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ShipmentRepository) FindByCode(ctx context.Context, code string) (*entity.Shipment, error) {
	var s entity.Shipment
	err := r.db.WithContext(ctx).First(&s, "codigo_carga = ?", code).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ListArticles 按导入顺序
func (r *ShipmentRepository) ListArticles(ctx context.Context, shipmentID uint64) ([]entity.Article, error) {
	var articles []entity.Article
	err := r.db.WithContext(ctx).
		Where("id_carga = ?", shipmentID).
		Order("posicion ASC, id_articulo ASC").
		Find(&articles).Error
	return articles, err
}

// ShipmentSummary 列表项，附带汇总
type ShipmentSummary struct {
	entity.Shipment
	Articles    int64           `json:"total_articulos"`
	Boxes       int64           `json:"total_cajas"`
	TotalCBM    decimal.Decimal `json:"total_cbm"`
	TotalWeight decimal.Decimal `json:"total_peso"`
}

type shipmentTotals struct {
	ShipmentID uint64          `gorm:"column:id_carga"`
	Articles   int64           `gorm:"column:articles"`
	Boxes      int64           `gorm:"column:boxes"`
	CBM        decimal.Decimal `gorm:"column:cbm"`
	Weight     decimal.Decimal `gorm:"column:weight"`
}

// List 分页列出货运，q 匹配编码或客户名
func (r *ShipmentRepository) List(ctx context.Context, q string, page, pageSize int) ([]ShipmentSummary, int64, error) {
	var shipments []entity.Shipment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Shipment{})
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("codigo_carga ILIKE ? OR cliente_nombre ILIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	if err := query.Order("fecha_creacion DESC, id_carga DESC").Offset(offset).Limit(pageSize).Find(&shipments).Error; err != nil {
		return nil, 0, err
	}
	if len(shipments) == 0 {
		return []ShipmentSummary{}, total, nil
	}

	ids := make([]uint64, len(shipments))
	for i, s := range shipments {
		ids[i] = s.ID
	}
	var totals []shipmentTotals
	err := r.db.WithContext(ctx).Table("articulos").
		Select("id_carga, COUNT(*) AS articles, COALESCE(SUM(cantidad_cajas), 0) AS boxes, COALESCE(SUM(cbm_total), 0) AS cbm, COALESCE(SUM(gw_total), 0) AS weight").
		Where("id_carga IN ?", ids).
		Group("id_carga").
		Scan(&totals).Error
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint64]shipmentTotals, len(totals))
	for _, t := range totals {
		byID[t.ShipmentID] = t
	}

	out := make([]ShipmentSummary, len(shipments))
	for i, s := range shipments {
		t := byID[s.ID]
		out[i] = ShipmentSummary{Shipment: s, Articles: t.Articles, Boxes: t.Boxes, TotalCBM: t.CBM, TotalWeight: t.Weight}
	}
	return out, total, nil
}

// ListBoxes returns every box of a shipment ordered by article position, box number, then id.
func (r *ShipmentRepository) ListBoxes(ctx context.Context, shipmentID uint64) ([]entity.BoxListing, error) {
	var rows []entity.BoxListing
	err := r.db.WithContext(ctx).Table("qr_codes q").
		Select("q.id_qr, q.id_articulo, a.posicion, q.numero_caja, q.total_cajas, q.codigo_qr, q.datos_qr, a.descripcion_espanol, a.ref_art").
		Joins("JOIN articulos a ON a.id_articulo = q.id_articulo").
		Where("q.id_carga = ?", shipmentID).
		Order("a.posicion ASC, q.numero_caja ASC, q.id_qr ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ShipmentRepository) FindBox(ctx context.Context, id uint64) (*entity.Box, error) {
	var b entity.Box
	err := r.db.WithContext(ctx).First(&b, "id_qr = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *ShipmentRepository) FindBoxByCode(ctx context.Context, code string) (*entity.Box, error) {
	var b entity.Box
	err := r.db.WithContext(ctx).First(&b, "codigo_qr = ?", code).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// RecordScan 追加扫码记录，返回该箱累计扫码次数
func (r *ShipmentRepository) RecordScan(ctx context.Context, scan *entity.BoxScan) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scan).Error; err != nil {
			return err
		}
		return tx.Model(&entity.BoxScan{}).Where("id_qr = ?", scan.BoxID).Count(&count).Error
	})
	return count, err
}
