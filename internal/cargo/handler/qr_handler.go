package handler

import (
	"strconv"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"github.com/gin-gonic/gin"
)

// QRHandler 二维码处理器
type QRHandler struct {
	svc *service.QRService
}

func NewQRHandler(svc *service.QRService) *QRHandler {
	return &QRHandler{svc: svc}
}

// List 货运的全部二维码，附带展示序号
// GET /cargas/:id/qrs
func (h *QRHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	records, err := h.svc.List(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, "Carga no encontrada")
		return
	}
	Success(c, gin.H{"id_carga": id, "total": len(records), "items": records})
}

// Image 二维码图片
// GET /qr/image/:id?width=
func (h *QRHandler) Image(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	width := 0
	if w := c.Query("width"); w != "" {
		v, err := strconv.Atoi(w)
		if err != nil {
			BadRequest(c, "Ancho inválido")
			return
		}
		width = v
	}
	img, err := h.svc.Render(c.Request.Context(), id, width)
	if err != nil {
		serviceError(c, err, "Código QR no encontrado")
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(200, "image/png", img.PNG)
}

// Scan 扫码校验
// POST /qr/validate-scanned
func (h *QRHandler) Scan(c *gin.Context) {
	var req service.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "El código QR es requerido")
		return
	}
	res, err := h.svc.Scan(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		serviceError(c, err, "Código QR no registrado")
		return
	}
	Success(c, res)
}
