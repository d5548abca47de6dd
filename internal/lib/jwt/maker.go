package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/membership-service/internal/models"
)

// GenerateToken выпускает JWT с субъектом email, подписывая его секретным ключом.
//
// Срок действия определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(email, role string) (string, time.Time, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	expiresAt := now.Add(j.tokenTTL)
	claims := CustomClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает CustomClaims.
//
// Истёкший токен возвращает models.ErrExpiredToken, любой другой дефект —
// models.ErrInvalidToken.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrExpiredToken)
		}
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidToken)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidToken)
	}
	return claims, nil
}
