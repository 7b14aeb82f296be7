package handler

import (
	"errors"
	"strconv"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sheet"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Shipment *ShipmentHandler
	QR       *QRHandler
	Document *DocumentHandler
	Import   *ImportHandler
	Events   *EventsHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Shipment: NewShipmentHandler(svc.Shipment),
		QR:       NewQRHandler(svc.QR),
		Document: NewDocumentHandler(svc.Document),
		Import:   NewImportHandler(svc.Import),
		Events:   NewEventsHandler(svc.Events),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, pageSize int, total int64) *Pagination {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: int(total), TotalPages: pages}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 编码重复
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// TooLarge 上传文件过大
func TooLarge(c *gin.Context, message string) {
	Error(c, 41300, message)
}

// ValidationFailed 字段校验失败，data 为字段错误列表
func ValidationFailed(c *gin.Context, fields []service.FieldError) {
	ErrorWithData(c, 42200, "Datos incompletos o inválidos", fields)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// DocumentError PDF 生成失败
func DocumentError(c *gin.Context, message string) {
	Error(c, 50001, message)
}

// Unavailable 依赖未配置
func Unavailable(c *gin.Context, message string) {
	Error(c, 50300, message)
}

// serviceError maps service errors onto the envelope.
func serviceError(c *gin.Context, err error, notFound string) {
	var verr *service.ValidationError
	var sizeErr *sheet.SizeError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(c, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, notFound)
	case errors.Is(err, service.ErrDuplicateCode):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrDocumentBuild):
		DocumentError(c, "No se pudo generar el PDF: "+err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		Unavailable(c, "Almacenamiento de archivos no configurado")
	case errors.As(err, &sizeErr):
		TooLarge(c, sizeErr.Error())
	case errors.Is(err, sheet.ErrUnsupportedType),
		errors.Is(err, sheet.ErrEmptyFile),
		errors.Is(err, service.ErrEmptySheet),
		errors.Is(err, service.ErrUnreadableSheet):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// paramID 解析路径中的数字 ID
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "ID inválido")
		return 0, false
	}
	return id, true
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}
