// Package jwt реализует выпуск и проверку JWT токенов сессии.
//
// Субъектом токена является email пользователя; срок жизни фиксирован
// и задаётся при создании Maker. Роль хранится в claims только для
// информации — авторизация всегда перечитывает пользователя из хранилища.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Email                string `json:"email"` // Email пользователя (дублирует sub)
	Role                 string `json:"role"`  // Роль на момент выпуска токена
	jwt.RegisteredClaims        // Стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс для выпуска и проверки токенов сессии.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с указанными email и ролью,
	// возвращая сам токен и момент истечения его срока действия.
	GenerateToken(email, role string) (string, time.Time, error)
	// ParseToken проверяет подпись и срок действия токена и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
	// TokenTTL возвращает срок жизни выпускаемых токенов.
	TokenTTL() time.Duration
}

// MakerImpl реализует интерфейс Maker на секретном ключе HS256
// и фиксированном времени жизни токена.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl по секретному ключу и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TokenTTL возвращает настроенное время жизни токена.
// Используется при выставлении max-age у cookie.
func (j *MakerImpl) TokenTTL() time.Duration {
	return j.tokenTTL
}
