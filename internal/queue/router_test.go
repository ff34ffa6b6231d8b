package queue

import (
	"net/http"
	"testing"
	"time"

	"clinicq/internal/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoutedEngine(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "router-test-secret"}}
	SetupQueueRoutes(engine.Group("/api/v1"), NewController(svc, 3*time.Second), cfg)
	return engine
}

func TestRoutes_StatusIsNeverCached(t *testing.T) {
	engine := newRoutedEngine(NewService(NewMemoryStore(), nil, nil, nil))

	rec, envelope := doRequest(t, engine, http.MethodGet, "/api/v1/queue/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestRoutes_StaffEndpointsRequireToken(t *testing.T) {
	engine := newRoutedEngine(NewService(NewMemoryStore(), nil, nil, nil))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/queue/entries"},
		{http.MethodGet, "/api/v1/queue/entries/waiting"},
		{http.MethodPost, "/api/v1/queue/entries"},
		{http.MethodPost, "/api/v1/queue/call-next"},
		{http.MethodPost, "/api/v1/queue/entries/" + uuid.NewString() + "/complete"},
		{http.MethodPost, "/api/v1/queue/entries/" + uuid.NewString() + "/cancel"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, envelope := doRequest(t, engine, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "error", envelope.Status)
		})
	}
}
