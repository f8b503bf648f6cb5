package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Role is the authenticated principal's role. Customers never authenticate;
// their identity is an opaque client token outside the JWT system entirely.
type Role string

const (
	RoleStoreOwner Role = "storeOwner"
	RoleAdmin      Role = "admin"
)

// Claims carries the authenticated store-owner (or admin) identity.
// StoreID is empty for platform admins.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	StoreID string `json:"store_id,omitempty"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// CanAccessStore reports whether the principal may act on the given store.
// Admins may act on any store.
func (c *Claims) CanAccessStore(storeID string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == RoleStoreOwner && c.StoreID == storeID
}

// Service signs and validates tokens with a single HMAC secret.
type Service struct {
	secretKey string
	expiry    time.Duration
}

func NewService(secretKey string, expiry time.Duration) *Service {
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &Service{secretKey: secretKey, expiry: expiry}
}

// GenerateToken issues a token for an owner or admin account.
func (s *Service) GenerateToken(userID, email, storeID string, role Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		StoreID: storeID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(s.secretKey), nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
