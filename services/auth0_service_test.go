package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth0Service_GetUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userinfo", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Unauthorized"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"auth0|sara","email":"sara@example.com","name":"Sara","phone_number":"+966500000000"}`))
	}))
	defer server.Close()

	svc := NewAuth0Service(&config.Config{Auth0Domain: server.URL})

	info, err := svc.GetUserInfo(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "auth0|sara", info.Sub)
	assert.Equal(t, "sara@example.com", info.Email)
	assert.Equal(t, "Sara", info.Name)
	assert.Equal(t, "+966500000000", info.PhoneNumber)

	_, err = svc.GetUserInfo(context.Background(), "bad-token")
	assert.ErrorContains(t, err, "status 401")
}

func TestAuth0Service_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	svc := NewAuth0Service(&config.Config{Auth0Domain: server.URL})
	_, err := svc.GetUserInfo(context.Background(), "token")
	assert.ErrorContains(t, err, "failed to decode")
}
