package handler

import (
	"fmt"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler PDF 处理器
type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// PDF 下载二维码 PDF
// GET /cargas/:id/pdf?compact=
func (h *DocumentHandler) PDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Build(c.Request.Context(), id, queryBool(c, "compact"))
	if err != nil {
		serviceError(c, err, "Carga no encontrada")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Header("X-Total-Pages", fmt.Sprint(doc.Pages))
	c.Data(200, "application/pdf", doc.Data)
}

// Archive 生成 PDF 并存入对象存储
// POST /cargas/:id/pdf/archive?compact=
func (h *DocumentHandler) Archive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	archived, err := h.svc.Archive(c.Request.Context(), id, queryBool(c, "compact"))
	if err != nil {
		serviceError(c, err, "Carga no encontrada")
		return
	}
	Created(c, archived)
}
