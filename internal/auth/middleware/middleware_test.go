package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wookiebooks/catalog/internal/auth/service"
	"github.com/wookiebooks/catalog/internal/models"
)

func TestAuthMiddleware(t *testing.T) {
	tg := service.NewTokenGenerator("test-secret", time.Hour)
	token, err := tg.Issue(&models.User{ID: 12, Username: "tod"}, "Tod")
	require.NoError(t, err)

	expired, err := service.NewTokenGenerator("test-secret", time.Hour,
		service.WithClock(func() time.Time { return time.Now().Add(-3 * time.Hour) })).Issue(&models.User{ID: 12}, "Tod")
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedUserID int64
	}{
		{name: "valid token", header: "Bearer " + token, expectedStatus: http.StatusOK, expectedUserID: 12},
		{name: "no header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "no bearer prefix", header: token, expectedStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int64
			h := AuthMiddleware(tg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := GetClaims(r.Context())
				require.True(t, ok)
				id, err := claims.Identity()
				require.NoError(t, err)
				gotUserID = id
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedUserID, gotUserID)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	tg := service.NewTokenGenerator("test-secret", time.Hour)
	wookie, err := tg.Issue(&models.User{ID: 1, Username: "chewie"}, "Wookie")
	require.NoError(t, err)
	tod, err := tg.Issue(&models.User{ID: 2, Username: "tod"}, "Tod")
	require.NoError(t, err)

	protected := AuthMiddleware(tg)(RoleMiddleware("Wookie", "Admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "allowed role", token: wookie, expectedStatus: http.StatusOK},
		{name: "other role", token: tod, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("without auth middleware", func(t *testing.T) {
		w := httptest.NewRecorder()
		RoleMiddleware("Wookie")(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
