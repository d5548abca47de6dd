package setrole_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-service/internal/http/handlers/admin/setrole"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) UpdateUserRole(ctx context.Context, userUID string, role models.Role) error {
	args := m.Called(ctx, userUID, role)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		uid        string
		body       string
		setupMock  func(repo *UserRepoMock)
		wantStatus int
	}{
		{
			name: "success",
			uid:  "uid-1",
			body: `{"role": "premium"}`,
			setupMock: func(repo *UserRepoMock) {
				repo.On("UpdateUserRole", mock.Anything, "uid-1", models.RolePremium).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown role",
			uid:        "uid-1",
			body:       `{"role": "superuser"}`,
			setupMock:  func(repo *UserRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			uid:        "uid-1",
			body:       `{"role"`,
			setupMock:  func(repo *UserRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown user",
			uid:  "uid-ghost",
			body: `{"role": "free"}`,
			setupMock: func(repo *UserRepoMock) {
				repo.On("UpdateUserRole", mock.Anything, "uid-ghost", models.RoleFree).
					Return(models.ErrUserNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMock(repo)

			handler := setrole.New(newNoopLogger(), repo)
			req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/users/"+tt.uid+"/role",
				bytes.NewBufferString(tt.body))

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uid", tt.uid)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			repo.AssertExpectations(t)
		})
	}
}
