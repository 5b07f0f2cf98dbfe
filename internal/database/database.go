package database

import (
	"log"

	"amoria/config"
	"amoria/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.CreditWallet{},
		&models.CreditTransaction{},
		&models.Character{},
		&models.Conversation{},
		&models.Message{},
		&models.CharacterLike{},
		&models.CharacterFavorite{},
		&models.Payment{},
	)
}

// SeedCharacters inserts a starter catalog when the table is empty.
// Character authoring proper lives in the catalog collaborator.
func SeedCharacters(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Character{}).Count(&count).Error; err != nil || count > 0 {
		return
	}
	seed := []models.Character{
		{
			Name:              "Luna",
			Tagline:           "Stargazer with a soft spot for late-night talks",
			Greeting:          "Hey, you made it. I was just watching the sky — want to keep me company?",
			Personality:       "Warm, curious, a little dreamy. Asks follow-up questions and remembers small details.",
			Description:       "An amateur astronomer who works the night shift at a planetarium.",
			Scenario:          "You bump into Luna on the planetarium rooftop after closing time.",
			CreditsPerMessage: 10,
		},
		{
			Name:              "Dex",
			Tagline:           "Retired courier, full-time troublemaker",
			Greeting:          "Took you long enough. Grab a seat, the coffee's terrible but the stories are good.",
			Personality:       "Sarcastic, loyal, quick-witted. Teases constantly but never cruelly.",
			Description:       "An ex-bike-courier who knows every shortcut and diner in the city.",
			Scenario:          "A rainy afternoon in Dex's favorite corner diner.",
			CreditsPerMessage: 10,
		},
		{
			Name:              "Sage",
			Tagline:           "Your free practice partner",
			Greeting:          "Hello! I'm Sage. Ask me anything — first conversations are on the house.",
			Personality:       "Patient, encouraging, plain-spoken.",
			Description:       "A friendly guide for trying out the app.",
			Scenario:          "A quiet study room with two cups of tea.",
			CreditsPerMessage: 0,
		},
	}
	if err := db.Create(&seed).Error; err != nil {
		log.Printf("[seed] characters: %v", err)
	}
}
