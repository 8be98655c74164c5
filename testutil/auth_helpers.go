package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/drinkmates/aqualine-api/middleware"
	"github.com/gin-gonic/gin"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, scopes []string) {
	c.Set("user_id", userID)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", MockValidatedClaims(userID, issuer, scopes))
}

// MockAuthMiddleware stands in for EnsureValidToken and authenticates every request as auth0ID
func MockAuthMiddleware(auth0ID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, auth0ID, "https://test.auth0.com/", nil)
		c.Next()
	}
}

// HeaderAuthMiddleware authenticates as the subject in the X-Test-User header, rejecting requests without it
func HeaderAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader("X-Test-User")
		if subject == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_TOKEN", "message": "Failed to validate JWT."},
			})
			return
		}
		SetMockAuthContext(c, subject, "https://test.auth0.com/", nil)
		c.Next()
	}
}
