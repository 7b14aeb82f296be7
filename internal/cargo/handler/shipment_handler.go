package handler

import (
	"strings"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler 货运处理器
type ShipmentHandler struct {
	svc *service.ShipmentService
}

func NewShipmentHandler(svc *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

// GenerateCode 生成货运编码
// GET /cargas/generar-codigo
func (h *ShipmentHandler) GenerateCode(c *gin.Context) {
	Success(c, h.svc.GenerateCode(c.Request.Context()))
}

// Save 保存装箱单
// POST /cargas/guardar-packing-list
func (h *ShipmentHandler) Save(c *gin.Context) {
	var req service.SaveShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Cuerpo de la solicitud inválido: "+err.Error())
		return
	}
	res, err := h.svc.Save(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		serviceError(c, err, "Carga no encontrada")
		return
	}
	Created(c, res)
}

// List 货运列表
// GET /cargas?q=&page=&page_size=
func (h *ShipmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		InternalError(c, "Error al listar cargas: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /cargas/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, "Carga no encontrada")
		return
	}
	Success(c, s)
}

// GetByCode GET /cargas/buscar/:codigo
func (h *ShipmentHandler) GetByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("codigo"))
	if code == "" {
		BadRequest(c, "El código de carga es requerido")
		return
	}
	s, err := h.svc.GetByCode(c.Request.Context(), code)
	if err != nil {
		serviceError(c, err, "No se encontró la carga "+code)
		return
	}
	Success(c, s)
}
