package service

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// EntityService applies client mutations on the reference server.
type EntityService interface {
	// ApplySync applies req on behalf of userID with optimistic version
	// checks. A stale write is reported as a response with Conflict set.
	// Requests carrying an idempotency key that was seen before get the
	// stored response back without touching the entity.
	ApplySync(ctx context.Context, userID int64, req models.SyncRequest) (models.SyncResponse, error)

	GetEntity(ctx context.Context, key string) (models.EntityRecord, error)
	GetVersion(ctx context.Context, key string) (models.VersionResponse, error)
}

type AuthService interface {
	CreateToken(ctx context.Context, userID int64) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
