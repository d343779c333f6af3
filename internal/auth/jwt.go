// Package auth validates caller tokens and turns them into approval.Caller
// identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the custom claims carried by caller tokens.
type Claims struct {
	UID      string `json:"uid"`
	Email    string `json:"email,omitempty"`
	Approved bool   `json:"approved"`
	Role     string `json:"role,omitempty"`
	TeamID   string `json:"teamId,omitempty"`
	HQID     string `json:"hqId,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts token claims into a caller identity.
func (c *Claims) Caller() *approval.Caller {
	return &approval.Caller{
		UID:      c.UID,
		Email:    c.Email,
		Approved: c.Approved,
		Role:     approval.ParseRole(c.Role),
		TeamID:   c.TeamID,
		HQID:     c.HQID,
	}
}

// TokenService signs and validates HS256 caller tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A zero ttl means one hour.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token for the given claims.
func (s *TokenService) Sign(c Claims) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   c.UID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// Authenticate validates token and attaches the caller identity to ctx.
func (s *TokenService) Authenticate(ctx context.Context, token string) (context.Context, error) {
	claims, err := s.Validate(token)
	if err != nil {
		return nil, err
	}
	return approval.WithCaller(ctx, claims.Caller()), nil
}
