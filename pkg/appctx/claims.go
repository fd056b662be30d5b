package appctx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields read from the backend's access token.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var errEmptyToken = errors.New("appctx: empty token")

// ParseClaims decodes the token without verifying its signature. The
// backend verifies tokens; the client only reads identity and expiry.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, errEmptyToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("appctx: parse token: %w", err)
	}
	return claims, nil
}
