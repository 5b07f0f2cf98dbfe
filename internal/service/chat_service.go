package service

import (
	"errors"
	"fmt"
	"strings"

	"amoria/internal/domain"
	"amoria/internal/models"
	"amoria/internal/repository"

	"gorm.io/gorm"
)

var ErrEmptyMessage = errors.New("message content is empty")

// MessagePublisher fans conversation events out to live subscribers.
type MessagePublisher interface {
	PublishMessage(conversationID uint, msg *models.Message)
	PublishTyping(conversationID uint)
}

// BalancePublisher pushes authoritative balances to a user's live stream.
type BalancePublisher interface {
	PublishBalance(userID uint, balance int64)
}

// ReplyGenerator schedules the asynchronous character reply for a freshly
// appended user message. Implementations must not block the caller.
type ReplyGenerator interface {
	Trigger(conv *models.Conversation, userMessageID uint)
}

// SendResult is what the caller gets back as soon as the user's message is
// durable: the character reply arrives later over the live subscription.
type SendResult struct {
	Message    *models.Message `json:"message"`
	NewBalance int64           `json:"new_balance"`
}

// ChatService is the message pipeline: debit + append as one transaction,
// then fire-and-forget generation.
type ChatService struct {
	db        *gorm.DB
	convRepo  *repository.ConversationRepository
	charRepo  *repository.CharacterRepository
	ledger    *repository.LedgerRepository
	generator ReplyGenerator
	messages  MessagePublisher
	balances  BalancePublisher
}

func NewChatService(
	db *gorm.DB,
	convRepo *repository.ConversationRepository,
	charRepo *repository.CharacterRepository,
	ledger *repository.LedgerRepository,
	generator ReplyGenerator,
	messages MessagePublisher,
	balances BalancePublisher,
) *ChatService {
	return &ChatService{
		db:        db,
		convRepo:  convRepo,
		charRepo:  charRepo,
		ledger:    ledger,
		generator: generator,
		messages:  messages,
		balances:  balances,
	}
}

// SendMessage debits the per-message cost and appends the user's message as
// one transaction. On ErrInsufficientCredits nothing is persisted. On
// success the generation worker is triggered exactly once for the append
// and the call returns without waiting for the reply.
func (s *ChatService) SendMessage(userID, conversationID uint, content string) (*SendResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	conv, err := s.convRepo.GetOwned(conversationID, userID)
	if err != nil {
		return nil, err
	}
	ch, err := s.charRepo.GetByID(conv.CharacterID)
	if err != nil {
		return nil, err
	}
	var result SendResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.ledger.DebitTx(tx, userID, ch.CreditsPerMessage, fmt.Sprintf("conversation:%d", conv.ID))
		if err != nil {
			return err
		}
		msg, err := s.convRepo.AppendMessageTx(tx, conv.ID, conv.Epoch, domain.SenderUser, content, ch.CreditsPerMessage)
		if err != nil {
			// rolls back the debit too: no partial charge
			return err
		}
		result = SendResult{Message: msg, NewBalance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.messages != nil {
		s.messages.PublishMessage(conv.ID, result.Message)
	}
	if s.balances != nil {
		s.balances.PublishBalance(userID, result.NewBalance)
	}
	if s.generator != nil {
		s.generator.Trigger(conv, result.Message.ID)
	}
	return &result, nil
}

// GetOrCreateConversation resolves the single conversation for the pair,
// creating and greeting it if needed.
func (s *ChatService) GetOrCreateConversation(userID, characterID uint) (*models.Conversation, error) {
	ch, err := s.charRepo.GetByID(characterID)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return s.convRepo.GetOrCreate(userID, characterID)
}

func (s *ChatService) ListConversations(userID uint) ([]repository.ConversationSummary, error) {
	return s.convRepo.ListForUser(userID)
}

func (s *ChatService) Messages(userID, conversationID uint, limit, offset int) ([]models.Message, error) {
	if _, err := s.convRepo.GetOwned(conversationID, userID); err != nil {
		return nil, err
	}
	return s.convRepo.Messages(conversationID, limit, offset)
}

func (s *ChatService) DeleteConversation(userID, conversationID uint) error {
	return s.convRepo.Delete(conversationID, userID)
}

func (s *ChatService) ResetConversation(userID, conversationID uint) error {
	return s.convRepo.Reset(conversationID, userID)
}
