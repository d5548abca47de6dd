package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-service/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, userUID, email, passwordHash string, role models.Role) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, email, password_hash, role)
		VALUES ($1, $2, $3, $4)`,
		userUID, email, passwordHash, role)
	require.NoError(t, err)
}

// CreateSubscription создает тестовую подписку и возвращает ее id
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID, externalID string,
	status models.SubscriptionStatus, plan models.Plan, createdAt time.Time) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_uid, stripe_subscription_id, status, plan_name, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		userUID, externalID, status, plan, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestUserData содержит стандартные тестовые данные пользователя
type TestUserData struct {
	UID          string
	Email        string
	PasswordHash string
	Role         models.Role
}

// GetTestUserData возвращает стандартные тестовые данные пользователя
func GetTestUserData() TestUserData {
	return TestUserData{
		UID:          uuid.New().String(),
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleFree,
	}
}
