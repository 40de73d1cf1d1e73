package service

import (
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

// Services groups the reference server services.
type Services struct {
	AuthService    AuthService
	EntityService  EntityService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, cfg config.ServerApp, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Services{
		AuthService:    NewAuthService(cfg, logger),
		EntityService:  NewEntityService(storages.DB, storages.EntityRepository, storages.IdempotencyRepository, logger),
		AppInfoService: appInfo,
	}, nil
}
