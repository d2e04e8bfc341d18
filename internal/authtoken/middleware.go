package authtoken

import (
	auth "idv-gateway/pkg/platform/middleware/auth"
)

// MiddlewareValidator adapts Service to the auth middleware's validator port.
type MiddlewareValidator struct {
	Service *Service
}

func (v MiddlewareValidator) ValidateToken(tokenString string) (*auth.TokenClaims, error) {
	c, err := v.Service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.TokenClaims{
		UserID:      c.UserID,
		Status:      c.Status,
		KYCVerified: c.KYCVerified,
	}, nil
}
