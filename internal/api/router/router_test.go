package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mentor-match/config"
	"mentor-match/internal/api/handler"
	"mentor-match/internal/service"
	"mentor-match/pkg/jwt"
	"mentor-match/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupEngine(t *testing.T, store storage.Storage) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Server:  config.ServerConfig{BaseURL: "http://api.test"},
		Auth:    config.AuthConfig{JWTSecret: "router-test-secret-0123456789"},
		Storage: config.StorageConfig{PublicPath: "/uploads"},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	// 被中间件拦截的请求不会触达 Service
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, jwtMgr, nil, nil, store, zap.NewNop()), jwtMgr
}

func bearer(t *testing.T, m *jwt.Manager, id int64, role string) string {
	t.Helper()
	token, err := m.Issue(jwt.Subject{ID: id, Name: "Kim", Email: "kim@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := setupEngine(t, nil)
	w := do(r, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_NoRoute(t *testing.T) {
	r, _ := setupEngine(t, nil)
	w := do(r, "GET", "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Route not found","code":10006}`, w.Body.String())
}

func TestRouter_RequiresAuth(t *testing.T) {
	r, _ := setupEngine(t, nil)
	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/me"},
		{"PUT", "/api/profile"},
		{"POST", "/api/logout"},
		{"GET", "/api/mentors"},
		{"POST", "/api/match-requests"},
		{"GET", "/api/match-requests/incoming"},
		{"DELETE", "/api/match-requests/1"},
	} {
		assert.Equal(t, http.StatusUnauthorized, do(r, tc.method, tc.path, "").Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	r, m := setupEngine(t, nil)
	mentor := bearer(t, m, 1, "MENTOR")
	mentee := bearer(t, m, 2, "MENTEE")

	forbidden := []struct{ method, path, auth string }{
		{"GET", "/api/mentors", mentor},
		{"POST", "/api/match-requests", mentor},
		{"GET", "/api/match-requests/outgoing", mentor},
		{"DELETE", "/api/match-requests/1", mentor},
		{"GET", "/api/match-requests/incoming", mentee},
		{"GET", "/api/match-requests/incoming/export", mentee},
		{"PUT", "/api/match-requests/1/accept", mentee},
		{"PUT", "/api/match-requests/1/reject", mentee},
	}
	for _, tc := range forbidden {
		w := do(r, tc.method, tc.path, tc.auth)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_ServesLocalUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_1700000000000.png"), []byte("png"), 0o644))
	store, err := storage.NewLocalStorage(dir, "http://api.test/uploads")
	require.NoError(t, err)

	r, _ := setupEngine(t, store)
	w := do(r, "GET", "/uploads/1_1700000000000.png", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
}
