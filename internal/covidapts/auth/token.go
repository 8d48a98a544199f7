package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the access role carried in the "role" claim.
type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleJanitor      Role = "Janitor"
	RoleGuide        Role = "Guide"
	RoleSocialWorker Role = "SocialWorker"
)

// CompanyRoles may manage companies.
var CompanyRoles = []Role{RoleAdmin, RoleJanitor, RoleGuide, RoleSocialWorker}

const (
	Issuer   = "auth-service"
	tokenTTL = 24 * time.Hour
)

var ErrUnknownRole = errors.New("unknown role")

// Claims are the JWT claims issued by the authentication service.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// ParseRole matches raw against the known roles exactly.
func ParseRole(raw string) (Role, error) {
	for _, r := range CompanyRoles {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// GenerateToken signs an HS256 token for userID with the given role.
func GenerateToken(userID string, role Role, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateToken checks the token signature and returns parsed claims if valid.
func validateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
