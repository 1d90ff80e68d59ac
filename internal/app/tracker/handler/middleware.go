package handler

import (
	"net/http"
	"strings"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/internal/app/tracker/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextUserIDKey - ключ user id в контексте gin
const contextUserIDKey = "user_id"

// JWTAuthMiddleware проверяет Bearer токен и кладет user id в контекст
// Токены выпускает внешний сервис аутентификации, здесь только валидация
// подписи и claims
func JWTAuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "authorization header is required",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "invalid authorization header format",
			})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "invalid or expired token",
			})
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "token subject is missing",
			})
			return
		}

		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "token subject is not a valid user id",
			})
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

// userIDFromContext достает user id, положенный JWT middleware
func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(contextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
