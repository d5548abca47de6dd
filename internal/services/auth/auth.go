// Package auth реализует бизнес-логику регистрации и входа пользователей,
// а также разбор JWT-токенов для определения текущего пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/membership-service/internal/lib/jwt"
	"github.com/magabrotheeeer/membership-service/internal/lib/password"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

// UserRepo описывает операции хранилища, необходимые сервису аутентификации.
type UserRepo interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service реализует регистрацию, вход и разбор токена.
type Service struct {
	repo  UserRepo
	maker jwt.Maker
}

// New создает новый сервис аутентификации.
func New(repo UserRepo, maker jwt.Maker) *Service {
	return &Service{repo: repo, maker: maker}
}

// TokenTTL возвращает срок жизни выдаваемых токенов.
func (s *Service) TokenTTL() time.Duration {
	return s.maker.TokenTTL()
}

// Register создает нового пользователя с ролью free и сразу выдает токен сессии.
func (s *Service) Register(ctx context.Context, email, rawPassword string) (string, time.Time, error) {
	const op = "services.auth.Register"

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleFree,
	}
	if _, err := s.repo.CreateUser(ctx, user); err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	token, expiresAt, err := s.maker.GenerateToken(user.Email, string(user.Role))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, expiresAt, nil
}

// Login проверяет учетные данные и выдает токен сессии. Неверный email и
// неверный пароль неотличимы для вызывающего: оба дают ErrUnauthenticated.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, time.Time, error) {
	const op = "services.auth.Login"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", time.Time{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
		}
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	token, expiresAt, err := s.maker.GenerateToken(user.Email, string(user.Role))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, expiresAt, nil
}

// ResolveUser разбирает токен и возвращает актуальное состояние пользователя
// из хранилища. Роль в claims не используется для авторизации: источником
// истины всегда служит запись в базе.
func (s *Service) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.ResolveUser"

	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	claims, err := s.maker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.repo.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
