package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from an access token without the
// signing key. None of it is trusted; the server remains the authority.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt *time.Time
	IssuedAt  *time.Time
}

// Expired reports whether the token carries an exp claim that is not after now.
func (t TokenInfo) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !t.ExpiresAt.After(now)
}

// InspectAccessToken decodes the registered claims of a JWT without verifying
// its signature. Opaque (non-JWT) tokens return an error.
func InspectAccessToken(tokenString string) (*TokenInfo, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("access token is empty")
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("inspect access token: %w", err)
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		info.ExpiresAt = &exp
	}
	if claims.IssuedAt != nil {
		iat := claims.IssuedAt.Time.UTC()
		info.IssuedAt = &iat
	}
	return info, nil
}
