package service

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppInfoService_EmptyVersion(t *testing.T) {
	svc, err := NewAppInfoService(config.ServerApp{}, logger.Nop())

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrVersionIsNotSpecified)
}

func TestAppInfoService_GetAppVersion(t *testing.T) {
	for _, version := range []string{"1.0.0", "v1.2.3-beta+build.42"} {
		t.Run(version, func(t *testing.T) {
			svc, err := NewAppInfoService(config.ServerApp{Version: version}, logger.Nop())
			require.NoError(t, err)

			assert.Equal(t, version, svc.GetAppVersion(context.Background()))
		})
	}
}
