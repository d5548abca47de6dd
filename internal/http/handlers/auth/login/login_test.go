package login_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email, rawPassword string) (string, time.Time, error) {
	args := m.Called(ctx, email, rawPassword)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *AuthServiceMock) TokenTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute)

	tests := []struct {
		name       string
		body       string
		setupMock  func(service *AuthServiceMock)
		wantStatus int
		wantCookie bool
	}{
		{
			name: "success",
			body: `{"email": "user@example.com", "password": "secret123"}`,
			setupMock: func(service *AuthServiceMock) {
				service.On("Login", mock.Anything, "user@example.com", "secret123").
					Return("token-1", expires, nil)
				service.On("TokenTTL").Return(30 * time.Minute)
			},
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name: "wrong credentials",
			body: `{"email": "user@example.com", "password": "wrongpass"}`,
			setupMock: func(service *AuthServiceMock) {
				service.On("Login", mock.Anything, "user@example.com", "wrongpass").
					Return("", time.Time{}, models.ErrUnauthenticated)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid json",
			body:       `{"email"`,
			setupMock:  func(service *AuthServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			body:       `{}`,
			setupMock:  func(service *AuthServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(AuthServiceMock)
			tt.setupMock(service)

			handler := login.New(newNoopLogger(), service)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCookie {
				var found *http.Cookie
				for _, c := range rec.Result().Cookies() {
					if c.Name == "access_token" {
						found = c
					}
				}
				if assert.NotNil(t, found) {
					assert.Equal(t, "token-1", found.Value)
					assert.True(t, found.HttpOnly)
				}
			}
			service.AssertExpectations(t)
		})
	}
}
