// Package auth — JWT access/refresh token issuance and validation.
//
// AUTH FLOW:
// 1. POST /api/register creates the account
// 2. POST /api/token exchanges username+password for an access/refresh pair
// 3. The client sends "Authorization: Bearer <access>" on every other route
// 4. When the access token expires, POST /api/token/refresh exchanges the
//    refresh token for a fresh pair — no password re-entry
//
// Both tokens are HS256-signed JWTs carrying the user ID in the "sub" claim
// plus a "typ" claim ("access" or "refresh") so one can never stand in for
// the other: a refresh token presented on an API route is rejected, and an
// access token presented to /token/refresh is rejected.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "softdesk"

// Token types stored in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Default lifetimes. Access tokens are short-lived since they cannot be
// revoked; refresh tokens last a day so a client re-authenticates at most
// once per day.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// TokenService issues and validates the JWT pair. It holds the HMAC secret
// used for both signing and verification.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret and
// lifetimes. Zero durations fall back to the defaults. The secret should
// be at least 32 bytes of random data in production
// (JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// claims is the JWT payload. "sub" carries the internal user ID, "typ"
// distinguishes access from refresh tokens.
type claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair bundles the two tokens returned by login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// GeneratePair issues a fresh access/refresh pair for the given user.
func (s *TokenService) GeneratePair(userID string) (*TokenPair, error) {
	access, err := s.generate(userID, TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generate(userID, TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) generate(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", tokenType, err)
	}

	return signed, nil
}

// ValidateAccess verifies an access token and returns the user ID it
// encodes. Refresh tokens are rejected here.
func (s *TokenService) ValidateAccess(tokenStr string) (string, error) {
	return s.validate(tokenStr, TokenAccess)
}

// ValidateRefresh verifies a refresh token and returns the user ID it
// encodes. Access tokens are rejected here.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	return s.validate(tokenStr, TokenRefresh)
}

// validate parses and verifies a JWT string, checking signature, expiry,
// issuer, and algorithm. Passing jwt.WithValidMethods pins HS256 and
// blocks algorithm-confusion attacks ("none", RS256 key reuse).
func (s *TokenService) validate(tokenStr, wantType string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.TokenType != wantType {
		return "", fmt.Errorf("auth: %s token presented where %s token required", c.TokenType, wantType)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
