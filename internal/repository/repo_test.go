package repository

import (
	"testing"

	"amoria/internal/database"
	"amoria/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database. A single connection
// serializes concurrent test goroutines at the driver, which is enough to
// exercise the conditional-UPDATE logic without a real MySQL instance.
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

func fundWallet(t *testing.T, db *gorm.DB, userID uint, balance int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.CreditWallet{UserID: userID, Balance: balance}).Error)
}
