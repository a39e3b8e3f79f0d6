package handlers

import (
	"phishscan/internal/domain/services"
	"phishscan/internal/infrastructure/cache"
	"phishscan/internal/infrastructure/database"
	"phishscan/internal/infrastructure/database/repository"
	"phishscan/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health *HealthHandler
	Scan   *ScanHandler
	SMS    *SMSHandler
	Logs   *LogsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	ScanService *services.ScanService
	SMSAnalyzer *services.SMSAnalyzer
	Detections  *repository.DetectionRepository
	ScanLogs    *repository.ScanLogRepository
	DB          *database.PostgresDB
	Cache       *cache.RedisCache
	Logger      *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.DB, deps.Cache, deps.Logger),
		Scan:   NewScanHandler(deps.ScanService, deps.Detections, deps.ScanLogs, deps.Logger),
		SMS:    NewSMSHandler(deps.SMSAnalyzer, deps.Logger),
		Logs:   NewLogsHandler(deps.ScanLogs, deps.Logger),
	}
}
