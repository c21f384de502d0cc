package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
)

// TokenType distinguishes access tokens from refresh tokens in the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AuthClaims are the JWT claims carried by issued tokens.
type AuthClaims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	Role      string    `json:"role"`
	CompanyID string    `json:"company_id,omitempty"`
}

// TokenPair is an access/refresh token set issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// IssueTokenPair signs a new access/refresh pair for the user.
func IssueTokenPair(secret string, user *models.User, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	access, err := signToken(secret, user, TokenTypeAccess, accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := signToken(secret, user, TokenTypeRefresh, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func signToken(secret string, user *models.User, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
		Role:      string(user.Role),
	}
	if user.CompanyID != nil {
		claims.CompanyID = user.CompanyID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a signed token of the expected type and returns its
// claims and the user id.
func ParseToken(secret, tokenString string, expected TokenType) (*AuthClaims, uuid.UUID, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.TokenType != expected {
		return nil, uuid.Nil, fmt.Errorf("unexpected token type %q", claims.TokenType)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return claims, userID, nil
}
