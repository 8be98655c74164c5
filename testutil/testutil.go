package testutil

import (
	"os"
	"testing"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// RequireTestEnvironmentOrSkip is like RequireTestEnvironment but skips instead of failing
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// NewTestDB opens a private in-memory sqlite database, migrates every model
// and installs it as config.DB for the duration of the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// every pooled connection to :memory: would be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))

	previous := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(previous)
		sqlDB.Close()
	})
	return db
}

// CreateUser stores a user with the given Auth0 subject and role
func CreateUser(t *testing.T, db *gorm.DB, auth0ID, role string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID: auth0ID,
		Name:    "User " + auth0ID,
		Email:   auth0ID + "@example.com",
		Role:    role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCylinderType stores the standard 60L cylinder with fixed prices:
// refill 45, exchange 55, new 150, subscription 40 SAR
func CreateCylinderType(t *testing.T, db *gorm.DB) *models.CylinderType {
	t.Helper()

	ct := &models.CylinderType{
		Name:              "Standard 60L",
		Slug:              "standard-60l",
		CapacityGrams:     425,
		RefillPrice:       decimal.NewFromInt(45),
		ExchangePrice:     decimal.NewFromInt(55),
		NewPrice:          decimal.NewFromInt(150),
		SubscriptionPrice: decimal.NewFromInt(40),
		Active:            true,
	}
	require.NoError(t, db.Create(ct).Error)
	return ct
}
