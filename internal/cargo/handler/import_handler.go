package handler

import (
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sheet"
	"github.com/gin-gonic/gin"
)

const templateFilename = "plantilla-packing-list.xlsx"

// ImportHandler 装箱单导入处理器
type ImportHandler struct {
	svc *service.ImportService
}

func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Process 上传并解析装箱单
// POST /cargas/procesar-excel
func (h *ImportHandler) Process(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "No se ha subido ningún archivo")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "No se pudo leer el archivo: "+err.Error())
		return
	}
	defer src.Close()

	up := sheet.Upload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}
	res, err := h.svc.Import(c.Request.Context(), up, src)
	if err != nil {
		serviceError(c, err, "")
		return
	}
	Success(c, res)
}

// Template 下载模板
// GET /cargas/plantilla
func (h *ImportHandler) Template(c *gin.Context) {
	f, err := h.svc.Template()
	if err != nil {
		InternalError(c, "No se pudo generar la plantilla: "+err.Error())
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "No se pudo generar la plantilla: "+err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+templateFilename+`"`)
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
