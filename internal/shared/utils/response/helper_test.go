package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(RequestIDKey, "req-123")

	RespondJSON(c, "error", http.StatusConflict, "a patient is already being served", nil, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.EqualValues(t, http.StatusConflict, body["status_code"])
	assert.Equal(t, "req-123", body["request_id"])
	assert.NotContains(t, body, "data")
	assert.NotContains(t, body, "errors")
}

func TestRespondJSON_NoRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondJSON(c, "success", http.StatusOK, "ok", gin.H{"waitingCount": 0}, nil)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "request_id")
	assert.Equal(t, map[string]interface{}{"waitingCount": float64(0)}, body["data"])
}
