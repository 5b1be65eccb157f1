// Package routes maps URL paths onto handlers.
package routes

import (
	"github.com/gin-gonic/gin"

	"photopick/internal/interfaces/http/handlers"
)

// QuotaRouteConfig holds dependencies for the ledger and upload routes.
type QuotaRouteConfig struct {
	LedgerHandler *handlers.LedgerHandler
	UploadHandler *handlers.UploadHandler
	// UploadLimit is applied to upload creation only; nil disables it.
	UploadLimit gin.HandlerFunc
}

// SetupQuotaRoutes configures the owner ledger and upload routes.
func SetupQuotaRoutes(engine *gin.Engine, cfg *QuotaRouteConfig) {
	api := engine.Group("/api")

	owners := api.Group("/owners/:owner_id")
	{
		owners.POST("/ledger", cfg.LedgerHandler.ProvisionLedger)
		owners.GET("/ledger/drift", cfg.LedgerHandler.GetDrift)
		owners.GET("/quota", cfg.LedgerHandler.GetQuota)
		owners.PATCH("/plan", cfg.LedgerHandler.ChangePlan)

		create := []gin.HandlerFunc{cfg.UploadHandler.CreateUpload}
		if cfg.UploadLimit != nil {
			create = append([]gin.HandlerFunc{cfg.UploadLimit}, create...)
		}
		owners.POST("/uploads", create...)
		owners.GET("/uploads", cfg.UploadHandler.ListUploads)
	}

	uploads := api.Group("/uploads")
	{
		uploads.GET("/:upload_id", cfg.UploadHandler.GetUpload)
		uploads.DELETE("/:upload_id", cfg.UploadHandler.DeleteUpload)
	}
}
