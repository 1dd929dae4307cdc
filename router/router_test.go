package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"consumables/config"
	"consumables/middleware"

	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "router-test-secret"},
	}
	middleware.InitJWT(cfg)
	return cfg
}

func TestSetupRouter_PublicEndpoints(t *testing.T) {
	r := SetupRouter(testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/v1/items/1/take", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRouter_RequiresToken(t *testing.T) {
	r := SetupRouter(testConfig())

	for _, route := range []struct{ method, path string }{
		{"POST", "/api/v1/items/1/take"},
		{"DELETE", "/api/v1/consumptions/1"},
		{"PUT", "/api/v1/items/1/stock"},
		{"GET", "/api/v1/stock/low"},
		{"GET", "/api/v1/leaderboard"},
		{"DELETE", "/api/v1/categories/1"},
		{"GET", "/api/v1/staff"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.method+" "+route.path)
	}
}
