// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/l5x-extractor/backend/internal/session"
	"github.com/l5x-extractor/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store   storage.Store
	RunMgr  *session.Manager
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	API    *Handler
	Health *HealthHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		API:    NewHandler(deps.Store, deps.RunMgr),
		Health: NewHealthHandler(deps.Version),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Document routes
	fileGroup := e.Group("/api/files")
	fileGroup.POST("/upload", handlers.API.HandleUploadFile)
	fileGroup.GET("/recent", handlers.API.HandleRecentFiles)
	fileGroup.GET("/:id", handlers.API.HandleGetFile)
	fileGroup.DELETE("/:id", handlers.API.HandleDeleteFile)
	fileGroup.PUT("/:id", handlers.API.HandleRenameFile)

	// Extraction run routes
	runGroup := e.Group("/api/runs")
	runGroup.POST("", handlers.API.HandleStartRun)
	runGroup.GET("/:runId/status", handlers.API.HandleRunStatus)
	runGroup.GET("/:runId/bundle", handlers.API.HandleRunBundle)
	runGroup.GET("/:runId/bundle/msgpack", handlers.API.HandleRunBundleMsgpack)
	runGroup.GET("/:runId/workbooks", handlers.API.HandleListWorkbooks)
	runGroup.GET("/:runId/workbooks/:name", handlers.API.HandleDownloadWorkbook)
}
