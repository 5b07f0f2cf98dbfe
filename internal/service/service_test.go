package service

import (
	"sync"
	"testing"

	"amoria/internal/database"
	"amoria/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
		Personality:       "Curious and kind.",
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

// recordingPublisher captures publishes for assertions.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []*models.Message
	typing   []uint
	balances []int64
}

func (p *recordingPublisher) PublishMessage(conversationID uint, msg *models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *recordingPublisher) PublishTyping(conversationID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing = append(p.typing, conversationID)
}

func (p *recordingPublisher) PublishBalance(userID uint, balance int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances = append(p.balances, balance)
}

func (p *recordingPublisher) messageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func (p *recordingPublisher) typingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.typing)
}

// recordingGenerator counts triggers per user message ID.
type recordingGenerator struct {
	mu       sync.Mutex
	triggers map[uint]int
}

func newRecordingGenerator() *recordingGenerator {
	return &recordingGenerator{triggers: make(map[uint]int)}
}

func (g *recordingGenerator) Trigger(conv *models.Conversation, userMessageID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.triggers[userMessageID]++
}

func (g *recordingGenerator) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.triggers {
		n += c
	}
	return n
}
