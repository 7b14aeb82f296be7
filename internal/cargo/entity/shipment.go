package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 货运状态
const (
	ShipmentStatusWarehouse = "en_bodega"
	ShipmentStatusTransit   = "en_transito"
	ShipmentStatusArrived   = "en_destino"
	ShipmentStatusDelivered = "entregada"
)

// 与列宽一致
const (
	MaxCodeLength  = 64
	MaxPhoneLength = 64
)

// Client 客户信息，创建时嵌入货运
type Client struct {
	Name            string `json:"nombre_cliente" gorm:"column:nombre;size:256;not null"`
	Email           string `json:"correo_cliente" gorm:"column:correo;size:256;not null"`
	Phone           string `json:"telefono_cliente" gorm:"column:telefono;size:64;not null"`
	DeliveryAddress string `json:"direccion_entrega" gorm:"column:direccion_entrega;size:512;not null"`
}

// ImportStats 导入时的统计快照
type ImportStats struct {
	TotalRows  int `json:"total_filas" gorm:"column:total_filas;default:0"`
	ValidRows  int `json:"filas_exitosas" gorm:"column:filas_exitosas;default:0"`
	ErrorRows  int `json:"filas_con_error" gorm:"column:filas_con_error;default:0"`
	EmptyRows  int `json:"filas_vacias" gorm:"column:filas_vacias;default:0"`
	Columns    int `json:"columnas" gorm:"column:columnas;default:0"`
	HeaderRows int `json:"filas_encabezado" gorm:"column:filas_encabezado;default:0"`
}

// Shipment 货运（Carga）
type Shipment struct {
	ID           uint64      `json:"id_carga" gorm:"column:id_carga;primaryKey;autoIncrement"`
	Code         string      `json:"codigo_carga" gorm:"column:codigo_carga;size:64;not null;uniqueIndex"`
	Client       Client      `json:"cliente" gorm:"embedded;embeddedPrefix:cliente_"`
	Destination  string      `json:"direccion_destino" gorm:"column:direccion_destino;size:512;not null"`
	SourceFile   string      `json:"archivo_original" gorm:"column:archivo_original;size:256"`
	Status       string      `json:"estado" gorm:"column:estado;size:32;not null;default:en_bodega"`
	Container    string      `json:"contenedor_asociado" gorm:"column:contenedor_asociado;size:64"`
	Notes        string      `json:"observaciones" gorm:"column:observaciones;type:text"`
	Stats        ImportStats `json:"estadisticas" gorm:"embedded"`
	CreatedBy    string      `json:"creado_por" gorm:"column:creado_por;size:64"`
	ReceivedAt   *time.Time  `json:"fecha_recepcion" gorm:"column:fecha_recepcion"`
	DispatchedAt *time.Time  `json:"fecha_envio" gorm:"column:fecha_envio"`
	ArrivedAt    *time.Time  `json:"fecha_llegada" gorm:"column:fecha_llegada"`
	CreatedAt    time.Time   `json:"fecha_creacion" gorm:"column:fecha_creacion"`
	UpdatedAt    time.Time   `json:"fecha_actualizacion" gorm:"column:fecha_actualizacion"`

	// 关联
	Articles []Article `json:"articulos,omitempty" gorm:"foreignKey:ShipmentID"`
}

func (Shipment) TableName() string {
	return "cargas"
}

// Article 装箱单行
type Article struct {
	ID            uint64          `json:"id_articulo" gorm:"column:id_articulo;primaryKey;autoIncrement"`
	ShipmentID    uint64          `json:"id_carga" gorm:"column:id_carga;not null;index"`
	Position      int             `json:"posicion" gorm:"column:posicion;not null"`
	Date          string          `json:"fecha" gorm:"column:fecha;size:32"`
	ClientMark    string          `json:"marca_cliente" gorm:"column:marca_cliente;size:128"`
	ImageURL      string          `json:"imagen_url" gorm:"column:imagen_url;size:512"`
	CN            string          `json:"cn" gorm:"column:cn;size:64"`
	Ref           string          `json:"ref_art" gorm:"column:ref_art;size:128"`
	Description   string          `json:"descripcion_espanol" gorm:"column:descripcion_espanol;type:text"`
	DescriptionCN string          `json:"descripcion_chino" gorm:"column:descripcion_chino;type:text"`
	Unit          string          `json:"unidad" gorm:"column:unidad;size:32"`
	UnitPrice     decimal.Decimal `json:"precio_unidad" gorm:"column:precio_unidad;type:decimal(14,4);default:0"`
	TotalPrice    decimal.Decimal `json:"precio_total" gorm:"column:precio_total;type:decimal(14,4);default:0"`
	Material      string          `json:"material" gorm:"column:material;size:128"`
	PackUnits     string          `json:"unidades_empaque" gorm:"column:unidades_empaque;size:64"`
	Brand         string          `json:"marca_producto" gorm:"column:marca_producto;size:128"`
	BoxCount      int             `json:"cantidad_cajas" gorm:"column:cantidad_cajas;not null;default:0"`
	QtyPerBox     decimal.Decimal `json:"cant_por_caja" gorm:"column:cant_por_caja;type:decimal(14,3);default:0"`
	QtyTotal      decimal.Decimal `json:"cant_total" gorm:"column:cant_total;type:decimal(14,3);default:0"`
	Length        decimal.Decimal `json:"medida_largo" gorm:"column:medida_largo;type:decimal(10,2);default:0"`
	Width         decimal.Decimal `json:"medida_ancho" gorm:"column:medida_ancho;type:decimal(10,2);default:0"`
	Height        decimal.Decimal `json:"medida_alto" gorm:"column:medida_alto;type:decimal(10,2);default:0"`
	CBM           decimal.Decimal `json:"cbm" gorm:"column:cbm;type:decimal(12,4);default:0"`
	CBMTotal      decimal.Decimal `json:"cbm_total" gorm:"column:cbm_total;type:decimal(12,4);default:0"`
	Weight        decimal.Decimal `json:"gw" gorm:"column:gw;type:decimal(12,3);default:0"`
	WeightTotal   decimal.Decimal `json:"gw_total" gorm:"column:gw_total;type:decimal(12,3);default:0"`
	Serial        string          `json:"serial" gorm:"column:serial;size:128"`
	CreatedAt     time.Time       `json:"fecha_creacion" gorm:"column:fecha_creacion"`

	// 关联
	Boxes []Box `json:"cajas,omitempty" gorm:"foreignKey:ArticleID"`
}

func (Article) TableName() string {
	return "articulos"
}
