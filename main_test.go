package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain refuses to run unless GO_ENV=test
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "test" {
		fmt.Fprintf(os.Stderr, "main tests must run with GO_ENV=test (current GO_ENV=%q)\n", env)
		os.Exit(1)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestHealthCheck is a unit test for the healthCheck handler function
func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	healthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status code 200")

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")

	assert.Equal(t, true, response["success"], "Expected success to be true")
	assert.Equal(t, "DrinkMates AquaLine API is running", response["message"], "Expected correct message")
}

// TestHealthCheckResponseFormat tests the exact JSON format
func TestHealthCheckResponseFormat(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	healthCheck(c)

	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2, "Response should have exactly 2 fields")
	assert.Contains(t, response, "success")
	assert.Contains(t, response, "message")
}

func TestDatabaseStatus(t *testing.T) {
	testutil.NewTestDB(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/database/status", nil)

	databaseStatus(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var response struct {
		Success bool     `json:"success"`
		Dialect string   `json:"dialect"`
		Tables  []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "sqlite", response.Dialect)
	assert.Contains(t, response.Tables, "co2_orders")
	assert.Contains(t, response.Tables, "co2_order_cylinders")
}

func TestDatabaseStatus_NotConnected(t *testing.T) {
	previous := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(previous) })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/database/status", nil)

	databaseStatus(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "DATABASE_ERROR")
}

func TestCORSConfig(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		allowAll    bool
		credentials bool
	}{
		{"empty list allows any origin", nil, true, false},
		{"wildcard allows any origin", []string{"https://app.drinkmates.sa", "*"}, true, false},
		{"explicit origins keep credentials", []string{"https://app.drinkmates.sa"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := corsConfig(tt.origins)
			assert.Equal(t, tt.allowAll, cfg.AllowAllOrigins)
			assert.Equal(t, tt.credentials, cfg.AllowCredentials)
			if !tt.allowAll {
				assert.Equal(t, tt.origins, cfg.AllowOrigins)
			}
			assert.NoError(t, cfg.Validate())
		})
	}
}
