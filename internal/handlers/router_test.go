package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/live"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/seed"
)

func newTestRouter(t *testing.T, ping func(context.Context) error) (http.Handler, *db.MemoryStore) {
	t.Helper()
	svc := newAuthService(t)
	store := calendarStore(t)
	handler := NewRouter(Deps{
		Auth:           svc,
		Gate:           policy.Default(),
		Store:          store,
		Users:          new(MockUserCollection),
		Hub:            live.NewHub(store),
		Router:         fakeRouter{},
		Uploader:       new(MockUploader),
		Seeder:         seed.New(store, 2, time.UTC),
		Location:       time.UTC,
		Settings:       map[string]string{"log_level": "info"},
		Ping:           ping,
		AllowedOrigins: []string{"https://app.example.com"},
		LoginLimit:     2,
	})
	return handler, store
}

func TestRouter(t *testing.T) {
	svc := newAuthService(t)
	handler, _ := newTestRouter(t, nil)

	do := func(method, target, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}
	viewer := tokenFor(t, svc, "v1", models.RoleViewer)
	manager := tokenFor(t, svc, "m1", models.RoleManager)
	admin := tokenFor(t, svc, "a1", models.RoleAdmin)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"records need a token", http.MethodGet, "/api/records/camions", "", http.StatusUnauthorized},
		{"records with a token", http.MethodGet, "/api/records/camions", viewer, http.StatusOK},
		{"bad token", http.MethodGet, "/api/records/camions", "nope", http.StatusUnauthorized},
		{"stock alerts for viewers", http.MethodGet, "/api/stock/alerts", viewer, http.StatusOK},
		{"finance summary", http.MethodGet, "/api/finance/summary?year=2025", viewer, http.StatusOK},
		{"calendar", http.MethodGet, "/api/calendar?date=2025-03-05", viewer, http.StatusOK},
		{"calendar day", http.MethodGet, "/api/calendar/day/2025-03-05", viewer, http.StatusOK},
		{"settings are admin only", http.MethodGet, "/api/admin/settings", manager, http.StatusForbidden},
		{"settings for admin", http.MethodGet, "/api/admin/settings", admin, http.StatusOK},
		{"method not allowed", http.MethodPatch, "/api/records/camions", viewer, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(tt.method, tt.target, tt.token)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_LoginRateLimit(t *testing.T) {
	handler, _ := newTestRouter(t, nil)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestRouter_Health(t *testing.T) {
	handler, _ := newTestRouter(t, func(context.Context) error { return errors.New("down") })
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/records/camions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/records/camions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
