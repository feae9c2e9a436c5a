// Package auth issues login tokens and guards routes by role.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cafepos/internal/domain"
)

// context keys set by Middleware
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyRole     = "role"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims payload токена
type Claims struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue подписывает HS256 токен для пользователя
func Issue(secret []byte, ttl time.Duration, u domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func Parse(secret []byte, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware проверяет Bearer токен и кладёт данные пользователя в контекст
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := Parse(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole пропускает только перечисленные роли
func RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleOf(c)
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

func UserID(c *gin.Context) int64 { return c.GetInt64(KeyUserID) }

func RoleOf(c *gin.Context) domain.Role {
	v, _ := c.Get(KeyRole)
	r, _ := v.(domain.Role)
	return r
}
