package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BoxPayloadVersion 二维码内容版本
const BoxPayloadVersion = "1.0"

// BoxPayload is the JSON encoded into each box's QR image.
type BoxPayload struct {
	Code        string `json:"codigo_unico"`
	Number      int    `json:"numero_caja"`
	Total       int    `json:"total_cajas"`
	Shipment    string `json:"codigo_carga"`
	Description string `json:"descripcion,omitempty"`
	Ref         string `json:"ref_art,omitempty"`
	Destination string `json:"destino,omitempty"`
	Weight      string `json:"peso,omitempty"`
	CBM         string `json:"cbm,omitempty"`
	ImageURL    string `json:"imagen_url,omitempty"`
	Version     string `json:"version"`
}

func (p BoxPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *BoxPayload) Scan(value interface{}) error {
	if value == nil {
		*p = BoxPayload{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan BoxPayload: %v", value)
	}
	return json.Unmarshal(data, p)
}

// Content 二维码编码内容
func (p BoxPayload) Content() string {
	data, err := json.Marshal(p)
	if err != nil || p.Code == "" {
		return p.Code
	}
	return string(data)
}

// Box 每个物理箱子一条二维码记录，创建后不再修改
type Box struct {
	ID         uint64     `json:"id_qr" gorm:"column:id_qr;primaryKey;autoIncrement"`
	ArticleID  uint64     `json:"id_articulo" gorm:"column:id_articulo;not null;uniqueIndex:idx_qr_articulo_caja,priority:1"`
	ShipmentID uint64     `json:"id_carga" gorm:"column:id_carga;not null;index"`
	Number     int        `json:"numero_caja" gorm:"column:numero_caja;not null;uniqueIndex:idx_qr_articulo_caja,priority:2"`
	Total      int        `json:"total_cajas" gorm:"column:total_cajas;not null"`
	Code       string     `json:"codigo_qr" gorm:"column:codigo_qr;size:160;not null;uniqueIndex"`
	Payload    BoxPayload `json:"datos_qr" gorm:"column:datos_qr;type:jsonb"`
	CreatedAt  time.Time  `json:"fecha_creacion" gorm:"column:fecha_creacion"`
}

func (Box) TableName() string {
	return "qr_codes"
}

// BoxScan 扫码记录
type BoxScan struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	BoxID     uint64    `json:"id_qr" gorm:"column:id_qr;not null;index"`
	ScannedBy string    `json:"escaneado_por" gorm:"column:escaneado_por;size:64"`
	Location  string    `json:"ubicacion" gorm:"column:ubicacion;size:256"`
	ScannedAt time.Time `json:"fecha_escaneo" gorm:"column:fecha_escaneo;not null"`
}

func (BoxScan) TableName() string {
	return "qr_escaneos"
}

// BoxListing is one row of the per-shipment box listing, joined with its article.
type BoxListing struct {
	BoxID       uint64     `gorm:"column:id_qr"`
	ArticleID   uint64     `gorm:"column:id_articulo"`
	Position    int        `gorm:"column:posicion"`
	Number      int        `gorm:"column:numero_caja"`
	Total       int        `gorm:"column:total_cajas"`
	Code        string     `gorm:"column:codigo_qr"`
	Payload     BoxPayload `gorm:"column:datos_qr"`
	Description string     `gorm:"column:descripcion_espanol"`
	Ref         string     `gorm:"column:ref_art"`
}
