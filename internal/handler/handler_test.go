package handler

import (
	"testing"
	"time"

	"amoria/config"
	"amoria/internal/database"
	"amoria/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Username: email, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTestCharacter(t *testing.T, db *gorm.DB, costPerMessage int64) *models.Character {
	t.Helper()
	ch := &models.Character{
		Name:              "Nova",
		Greeting:          "Hello there, traveler.",
		CreditsPerMessage: costPerMessage,
		IsActive:          true,
	}
	require.NoError(t, db.Create(ch).Error)
	return ch
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	}
}
