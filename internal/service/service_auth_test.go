package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

func TestAuthService_CreateAndParseToken(t *testing.T) {
	svc := NewAuthService(config.ServerApp{
		TokenSignKey:  "secret",
		TokenIssuer:   "offline-sync",
		TokenDuration: time.Hour,
	}, logger.Nop())

	token, err := svc.CreateToken(testContext(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, token.SignedString)

	parsed, err := svc.ParseToken(testContext(), token.SignedString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), parsed.UserID)
	assert.Equal(t, "offline-sync", parsed.Issuer)
}

func TestAuthService_ParseToken_Rejects(t *testing.T) {
	issuer := NewAuthService(config.ServerApp{TokenSignKey: "other", TokenIssuer: "offline-sync", TokenDuration: time.Hour}, logger.Nop())
	svc := NewAuthService(config.ServerApp{TokenSignKey: "secret", TokenIssuer: "offline-sync", TokenDuration: time.Hour}, logger.Nop())
	expired := NewAuthService(config.ServerApp{TokenSignKey: "secret", TokenIssuer: "offline-sync", TokenDuration: -time.Minute}, logger.Nop())

	foreign, err := issuer.CreateToken(testContext(), 1)
	require.NoError(t, err)
	old, err := expired.CreateToken(testContext(), 1)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":       "not-a-jwt",
		"wrong key":     foreign.SignedString,
		"expired token": old.SignedString,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(testContext(), raw)
			assert.ErrorIs(t, err, ErrTokenIsExpiredOrInvalid)
		})
	}
}
