package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"amoria/config"
	"amoria/internal/domain"
	"amoria/internal/models"
	"amoria/internal/repository"
	"amoria/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeCompleter returns a canned reply, optionally blocking on gate first.
type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
	gate  chan struct{} // when non-nil, the call waits for a receive
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{
		Choices: []llm.Choice{{Message: llm.Message{Role: llm.RoleAssistant, Content: f.reply}}},
	}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type generationFixture struct {
	db       *gorm.DB
	svc      *GenerationService
	convRepo *repository.ConversationRepository
	pub      *recordingPublisher
	llm      *fakeCompleter
}

func newGenerationFixture(t *testing.T, completer *fakeCompleter) *generationFixture {
	t.Helper()
	db := newTestDB(t)
	convRepo := repository.NewConversationRepository(db)
	charRepo := repository.NewCharacterRepository(db)
	pub := &recordingPublisher{}
	cfg := &config.LLMConfig{
		Model:         "test-model",
		MaxTokens:     256,
		CallTimeout:   5 * time.Second,
		HistoryWindow: 10,
	}
	svc := NewGenerationService(cfg, convRepo, charRepo, completer, pub)
	return &generationFixture{db: db, svc: svc, convRepo: convRepo, pub: pub, llm: completer}
}

func seedConversation(t *testing.T, f *generationFixture, userMessage string) (*models.Conversation, *models.Message) {
	t.Helper()
	u := createTestUser(t, f.db, "gen@test.local")
	ch := createTestCharacter(t, f.db, 10)
	conv, err := f.convRepo.GetOrCreate(u.ID, ch.ID)
	require.NoError(t, err)
	var msg *models.Message
	err = f.db.Transaction(func(tx *gorm.DB) error {
		m, err := f.convRepo.AppendMessageTx(tx, conv.ID, conv.Epoch, domain.SenderUser, userMessage, 10)
		msg = m
		return err
	})
	require.NoError(t, err)
	return conv, msg
}

func TestGenerationAppendsReply(t *testing.T) {
	completer := &fakeCompleter{reply: "Nice to meet you."}
	f := newGenerationFixture(t, completer)
	conv, msg := seedConversation(t, f, "hi there")

	f.svc.Trigger(conv, msg.ID)

	require.Eventually(t, func() bool {
		return f.pub.messageCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	msgs, err := f.convRepo.Messages(conv.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	last := msgs[len(msgs)-1]
	assert.Equal(t, domain.SenderCharacter, last.Sender)
	assert.Equal(t, "Nice to meet you.", last.Content)
	assert.Equal(t, int64(0), last.CreditsUsed)

	// typing signal preceded the reply
	assert.Equal(t, 1, f.pub.typingCount())
}

func TestTriggerDedupesInflight(t *testing.T) {
	gate := make(chan struct{})
	completer := &fakeCompleter{reply: "slow reply", gate: gate}
	f := newGenerationFixture(t, completer)
	conv, msg := seedConversation(t, f, "hi there")

	f.svc.Trigger(conv, msg.ID)
	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// repeated triggers for the same message are dropped
	f.svc.Trigger(conv, msg.ID)
	f.svc.Trigger(conv, msg.ID)
	assert.Equal(t, 1, f.svc.InflightCount())

	close(gate)
	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, completer.callCount())
	msgs, err := f.convRepo.Messages(conv.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 3, "exactly one reply appended")
}

func TestGenerationFailureLeavesLogIntact(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	f := newGenerationFixture(t, completer)
	conv, msg := seedConversation(t, f, "hi there")

	f.svc.Trigger(conv, msg.ID)
	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// user message stays durable and charged; no reply, no refund
	msgs, err := f.convRepo.Messages(conv.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, 0, f.pub.messageCount())
}

func TestGenerationDiscardedAfterReset(t *testing.T) {
	gate := make(chan struct{})
	completer := &fakeCompleter{reply: "stale reply", gate: gate}
	f := newGenerationFixture(t, completer)
	conv, msg := seedConversation(t, f, "hi there")

	f.svc.Trigger(conv, msg.ID)
	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.convRepo.Reset(conv.ID, conv.UserID))
	close(gate)

	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// the reply raced the reset and lost: only the reseeded greeting remains
	msgs, err := f.convRepo.Messages(conv.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderCharacter, msgs[0].Sender)
	assert.Equal(t, 0, f.pub.messageCount())
}

func TestGenerationDiscardedAfterDelete(t *testing.T) {
	gate := make(chan struct{})
	completer := &fakeCompleter{reply: "orphan reply", gate: gate}
	f := newGenerationFixture(t, completer)
	conv, msg := seedConversation(t, f, "hi there")

	f.svc.Trigger(conv, msg.ID)
	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.convRepo.Delete(conv.ID, conv.UserID))
	close(gate)

	require.Eventually(t, func() bool {
		return f.svc.InflightCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	var count int64
	require.NoError(t, f.db.Model(&models.Message{}).
		Where("conversation_id = ?", conv.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 0, f.pub.messageCount())
}

func TestBuildPromptRoles(t *testing.T) {
	ch := &models.Character{Name: "Nova", Personality: "Curious.", Scenario: "A rooftop."}
	history := []models.Message{
		{Sender: domain.SenderCharacter, Content: "Hello there."},
		{Sender: domain.SenderUser, Content: "Hi Nova."},
	}
	prompt := buildPrompt(ch, history)
	require.Len(t, prompt, 3)
	assert.Equal(t, llm.RoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "Nova")
	assert.Contains(t, prompt[0].Content, "A rooftop.")
	assert.Equal(t, llm.RoleAssistant, prompt[1].Role)
	assert.Equal(t, llm.RoleUser, prompt[2].Role)
}
