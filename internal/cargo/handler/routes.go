package handler

import (
	"net/http"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册路由
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "888cargo"})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "Not found"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	{
		cargas := v1.Group("/cargas")
		{
			cargas.POST("/procesar-excel", h.Import.Process)
			cargas.GET("/plantilla", h.Import.Template)
			cargas.GET("/generar-codigo", h.Shipment.GenerateCode)
			cargas.POST("/guardar-packing-list", middleware.RequireRole(middleware.RoleOperator), h.Shipment.Save)
			cargas.GET("", h.Shipment.List)
			cargas.GET("/buscar/:codigo", h.Shipment.GetByCode)
			cargas.GET("/:id", h.Shipment.Get)
			cargas.GET("/:id/qrs", h.QR.List)
			cargas.GET("/:id/pdf", h.Document.PDF)
			cargas.POST("/:id/pdf/archive", middleware.RequireRole(middleware.RoleOperator), h.Document.Archive)
		}

		qr := v1.Group("/qr")
		{
			qr.GET("/image/:id", h.QR.Image)
			qr.POST("/validate-scanned", h.QR.Scan)
		}

		v1.GET("/eventos", h.Events.Stream)
	}
}
