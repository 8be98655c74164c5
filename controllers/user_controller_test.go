package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/middleware"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUserInfo answers userinfo lookups by access token
type stubUserInfo map[string]*services.Auth0UserInfo

func (s stubUserInfo) GetUserInfo(ctx context.Context, accessToken string) (*services.Auth0UserInfo, error) {
	info, ok := s[accessToken]
	if !ok {
		return nil, errors.New("userinfo endpoint returned status 401")
	}
	return info, nil
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing
// It sets up the context exactly as the real EnsureValidToken middleware does
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

func TestCreateUser(t *testing.T) {
	testutil.NewTestDB(t)
	t.Cleanup(func() { SetUserInfoProvider(nil) })
	SetUserInfoProvider(stubUserInfo{
		"token-sara":    {Sub: "auth0|sara", Email: "sara@example.com", Name: "Sara", PhoneNumber: "+966500000001"},
		"token-ops":     {Sub: "auth0|ops", Email: "ops@drinkmates.sa", Name: "Ops Desk"},
		"token-noemail": {Sub: "auth0|noemail", Name: "No Email"},
		"token-noname":  {Sub: "auth0|noname", Email: "noname@example.com"},
		"token-driver":  {Sub: "auth0|driver", Email: "driver@example.com", Name: "Driver"},
	})

	tests := []struct {
		name           string
		auth0ID        string
		role           string
		accessToken    string
		expectedStatus int
		expectedCode   string
		expectedRole   string
	}{
		{
			name:           "Create customer user successfully",
			auth0ID:        "auth0|sara",
			accessToken:    "token-sara",
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleCustomer,
		},
		{
			name:           "Create admin from role claim",
			auth0ID:        "auth0|ops",
			role:           models.RoleAdmin,
			accessToken:    "token-ops",
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleAdmin,
		},
		{
			name:           "Duplicate Auth0 ID",
			auth0ID:        "auth0|sara",
			accessToken:    "token-sara",
			expectedStatus: http.StatusConflict,
			expectedCode:   "USER_EXISTS",
		},
		{
			name:           "Unknown role claim",
			auth0ID:        "auth0|driver",
			role:           "technician",
			accessToken:    "token-driver",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_ROLE",
		},
		{
			name:           "Missing email from Auth0",
			auth0ID:        "auth0|noemail",
			accessToken:    "token-noemail",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_EMAIL",
		},
		{
			name:           "Missing name from Auth0",
			auth0ID:        "auth0|noname",
			accessToken:    "token-noname",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_NAME",
		},
		{
			name:           "Auth0 rejects token",
			auth0ID:        "auth0|ghost",
			accessToken:    "token-unknown",
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "AUTH0_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/users", mockAuthMiddleware(tt.auth0ID, tt.role, tt.accessToken), CreateUser)

			req := httptest.NewRequest(http.MethodPost, "/users", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
				return
			}

			var user models.User
			decodeData(t, w, &user)
			assert.Equal(t, tt.auth0ID, user.Auth0ID)
			assert.Equal(t, tt.expectedRole, user.Role)
		})
	}

	var sara models.User
	require.NoError(t, config.GetDB().Where("auth0_id = ?", "auth0|sara").First(&sara).Error)
	assert.Equal(t, "+966500000001", sara.Phone)
}

func TestCreateUser_Auth0Server(t *testing.T) {
	testutil.NewTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" || r.Header.Get("Authorization") != "Bearer real-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(services.Auth0UserInfo{Sub: "auth0|lina", Email: "lina@example.com", Name: "Lina"})
	}))
	defer server.Close()

	previous := config.GetConfig()
	config.SetConfig(&config.Config{Auth0Domain: server.URL})
	t.Cleanup(func() { config.SetConfig(previous) })
	SetUserInfoProvider(nil)

	router := gin.New()
	router.POST("/users", mockAuthMiddleware("auth0|lina", "", "real-token"), CreateUser)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	decodeData(t, w, &user)
	assert.Equal(t, "lina@example.com", user.Email)
}

func TestGetMyProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "auth0|me", models.RoleCustomer)

	router := gin.New()
	router.GET("/users/me", testutil.HeaderAuthMiddleware(), GetMyProfile)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-Test-User", "auth0|me")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	decodeData(t, w, &user)
	assert.Equal(t, "auth0|me@example.com", user.Email)

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-Test-User", "auth0|nobody")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, w))
}

func TestUpdateMyProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "auth0|me", models.RoleCustomer)
	require.NoError(t, db.Create(&models.User{Auth0ID: "auth0|taken", Name: "Taken", Email: "taken@example.com", Role: models.RoleCustomer}).Error)

	router := gin.New()
	router.PUT("/users/me", testutil.HeaderAuthMiddleware(), UpdateMyProfile)

	put := func(body gin.H) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "auth0|me")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := put(gin.H{"name": "New Name", "phone": "+966511111111"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user models.User
	decodeData(t, w, &user)
	assert.Equal(t, "New Name", user.Name)
	assert.Equal(t, "+966511111111", user.Phone)

	w = put(gin.H{})
	assert.Equal(t, http.StatusOK, w.Code)

	w = put(gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = put(gin.H{"email": "taken@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_EXISTS", errorCode(t, w))
}
