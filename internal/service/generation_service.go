package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"amoria/config"
	"amoria/internal/domain"
	"amoria/internal/models"
	"amoria/internal/repository"
	"amoria/pkg/llm"
)

// ChatCompleter is the slice of the LLM client the worker needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// GenerationService produces the character's reply out of band. One live
// invocation per user message: repeated triggers for the same append are
// dropped while the first is in flight. Failures are logged and leave the
// conversation exactly as it was after the user's message.
type GenerationService struct {
	cfg      *config.LLMConfig
	convRepo *repository.ConversationRepository
	charRepo *repository.CharacterRepository
	llm      ChatCompleter
	messages MessagePublisher

	mu       sync.Mutex
	inflight map[uint]struct{} // keyed by user message ID
}

func NewGenerationService(
	cfg *config.LLMConfig,
	convRepo *repository.ConversationRepository,
	charRepo *repository.CharacterRepository,
	completer ChatCompleter,
	messages MessagePublisher,
) *GenerationService {
	return &GenerationService{
		cfg:      cfg,
		convRepo: convRepo,
		charRepo: charRepo,
		llm:      completer,
		messages: messages,
		inflight: make(map[uint]struct{}),
	}
}

// Trigger schedules a reply for the given user message and returns
// immediately. The epoch captured here guards the eventual append: a reset
// or delete that lands mid-generation makes the append a no-op.
func (s *GenerationService) Trigger(conv *models.Conversation, userMessageID uint) {
	s.mu.Lock()
	if _, busy := s.inflight[userMessageID]; busy {
		s.mu.Unlock()
		return
	}
	s.inflight[userMessageID] = struct{}{}
	s.mu.Unlock()

	conversationID, epoch := conv.ID, conv.Epoch
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inflight, userMessageID)
			s.mu.Unlock()
		}()
		s.run(conversationID, epoch)
	}()
}

func (s *GenerationService) run(conversationID uint, epoch int64) {
	if s.messages != nil {
		s.messages.PublishTyping(conversationID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	conv, err := s.convRepo.Get(conversationID)
	if err != nil {
		log.Printf("[generation] conversation %d gone before fetch: %v", conversationID, err)
		return
	}
	ch, err := s.charRepo.GetByID(conv.CharacterID)
	if err != nil {
		log.Printf("[generation] character %d for conversation %d: %v", conv.CharacterID, conversationID, err)
		return
	}
	history, err := s.convRepo.RecentMessages(conversationID, s.cfg.HistoryWindow)
	if err != nil {
		log.Printf("[generation] history for conversation %d: %v", conversationID, err)
		return
	}

	req := llm.CompletionRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		Messages:  buildPrompt(ch, history),
	}
	resp, err := s.llm.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("[generation] model call for conversation %d: %v", conversationID, err)
		return
	}
	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		log.Printf("[generation] empty reply for conversation %d", conversationID)
		return
	}

	msg, err := s.convRepo.AppendCharacterMessage(conversationID, epoch, reply)
	if err != nil {
		if errors.Is(err, repository.ErrConversationGone) {
			log.Printf("[generation] conversation %d deleted or reset mid-flight, reply discarded", conversationID)
		} else {
			log.Printf("[generation] append for conversation %d: %v", conversationID, err)
		}
		return
	}
	if s.messages != nil {
		s.messages.PublishMessage(conversationID, msg)
	}
}

// InflightCount reports how many generations are currently running.
func (s *GenerationService) InflightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// buildPrompt maps the character profile to a system message and the log to
// role-tagged turns: user messages keep the user role, character messages
// become assistant turns.
func buildPrompt(ch *models.Character, history []models.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: characterSystemPrompt(ch)})
	for _, m := range history {
		role := llm.RoleUser
		if m.Sender == domain.SenderCharacter {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

func characterSystemPrompt(ch *models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a fictional character in a roleplay chat.", ch.Name)
	if ch.Personality != "" {
		fmt.Fprintf(&b, "\nPersonality: %s", ch.Personality)
	}
	if ch.Description != "" {
		fmt.Fprintf(&b, "\nBackground: %s", ch.Description)
	}
	if ch.Scenario != "" {
		fmt.Fprintf(&b, "\nScenario: %s", ch.Scenario)
	}
	b.WriteString("\nStay in character and reply with a single conversational message.")
	return b.String()
}
