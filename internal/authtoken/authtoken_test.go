package authtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idv-gateway/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "idv-gateway")

	token, err := svc.GenerateToken("u1", "Grace", false, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Grace", claims.Status)
	assert.False(t, claims.KYCVerified)
	assert.Equal(t, "idv-gateway", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService("test-signing-key", "idv-gateway")

	token, err := svc.GenerateToken("u1", "Verified", true, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenSignedWithWrongKeyRejected(t *testing.T) {
	token, err := NewService("other-key", "idv-gateway").GenerateToken("u1", "Grace", false, time.Hour)
	require.NoError(t, err)

	_, err = NewService("test-signing-key", "idv-gateway").ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := NewService("test-signing-key", "idv-gateway").ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}
