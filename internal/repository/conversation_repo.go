package repository

import (
	"errors"
	"time"

	"amoria/internal/domain"
	"amoria/internal/models"

	"gorm.io/gorm"
)

// ConversationRepository owns conversation rows and their append-only
// message logs.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate returns the conversation for a (user, character) pair,
// creating and greeting-seeding it if absent. Concurrent calls converge on
// one row: losers of the create race hit the unique pair index and refetch.
// An archived conversation for the pair is unarchived and returned.
func (r *ConversationRepository) GetOrCreate(userID, characterID uint) (*models.Conversation, error) {
	conv, err := r.getByPair(userID, characterID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var ch models.Character
	if err := r.db.First(&ch, characterID).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	created := models.Conversation{
		UserID:        userID,
		CharacterID:   characterID,
		MessageCount:  1,
		LastMessageAt: now,
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		greeting := models.Message{
			ConversationID: created.ID,
			Sender:         domain.SenderCharacter,
			Content:        ch.Greeting,
			CreditsUsed:    0,
		}
		return tx.Create(&greeting).Error
	})
	if err != nil {
		if IsDuplicateKey(err) {
			return r.getByPair(userID, characterID)
		}
		return nil, err
	}
	return &created, nil
}

func (r *ConversationRepository) getByPair(userID, characterID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("user_id = ? AND character_id = ?", userID, characterID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	if conv.IsArchived {
		if err := r.db.Model(&conv).Update("is_archived", false).Error; err != nil {
			return nil, err
		}
		conv.IsArchived = false
	}
	return &conv, nil
}

func (r *ConversationRepository) Get(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetOwned fetches a conversation and verifies the requester owns it.
func (r *ConversationRepository) GetOwned(id, requesterID uint) (*models.Conversation, error) {
	conv, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != requesterID {
		return nil, ErrNotConversationOwner
	}
	return conv, nil
}

// Delete removes the conversation and all its messages. Ownership checked.
func (r *ConversationRepository) Delete(id, requesterID uint) error {
	if _, err := r.GetOwned(id, requesterID); err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Conversation{}, id).Error
	})
}

// Reset wipes the message log, reseeds the greeting and bumps the epoch so
// any in-flight generation for the old log is discarded on append.
func (r *ConversationRepository) Reset(id, requesterID uint) error {
	conv, err := r.GetOwned(id, requesterID)
	if err != nil {
		return err
	}
	var ch models.Character
	if err := r.db.First(&ch, conv.CharacterID).Error; err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Conversation{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"message_count":      1,
				"total_credits_used": 0,
				"epoch":              gorm.Expr("epoch + 1"),
				"last_message_at":    time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		greeting := models.Message{
			ConversationID: id,
			Sender:         domain.SenderCharacter,
			Content:        ch.Greeting,
			CreditsUsed:    0,
		}
		return tx.Create(&greeting).Error
	})
}

// ConversationSummary is a list row enriched with character display fields
// and the latest message.
type ConversationSummary struct {
	ID                 uint      `json:"id"`
	CharacterID        uint      `json:"character_id"`
	CharacterName      string    `json:"character_name"`
	CharacterAvatarURL string    `json:"character_avatar_url"`
	LastMessage        string    `json:"last_message"`
	LastSender         string    `json:"last_sender"`
	MessageCount       int64     `json:"message_count"`
	TotalCreditsUsed   int64     `json:"total_credits_used"`
	LastMessageAt      time.Time `json:"last_message_at"`
}

func (r *ConversationRepository) ListForUser(userID uint) ([]ConversationSummary, error) {
	var convs []models.Conversation
	err := r.db.Where("user_id = ? AND is_archived = ?", userID, false).
		Order("last_message_at DESC").
		Preload("Character").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		s := ConversationSummary{
			ID:                 c.ID,
			CharacterID:        c.CharacterID,
			CharacterName:      c.Character.Name,
			CharacterAvatarURL: c.Character.AvatarURL,
			MessageCount:       c.MessageCount,
			TotalCreditsUsed:   c.TotalCreditsUsed,
			LastMessageAt:      c.LastMessageAt,
		}
		var last models.Message
		if err := r.db.Where("conversation_id = ?", c.ID).
			Order("created_at DESC, id DESC").First(&last).Error; err == nil {
			s.LastMessage = last.Content
			s.LastSender = last.Sender
		}
		out = append(out, s)
	}
	return out, nil
}

// Messages returns the log in append order.
func (r *ConversationRepository) Messages(conversationID uint, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// RecentMessages returns the last n messages in append order, for building
// generation context.
func (r *ConversationRepository) RecentMessages(conversationID uint, n int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// AppendMessageTx appends a message and bumps the conversation counters in
// the caller's transaction. The epoch guard makes the append conditional:
// if the conversation was deleted or reset since the caller loaded it, no
// row matches and ErrConversationGone is returned.
func (r *ConversationRepository) AppendMessageTx(tx *gorm.DB, conversationID uint, epoch int64, sender, content string, creditsUsed int64) (*models.Message, error) {
	res := tx.Model(&models.Conversation{}).
		Where("id = ? AND epoch = ?", conversationID, epoch).
		Updates(map[string]interface{}{
			"message_count":      gorm.Expr("message_count + 1"),
			"total_credits_used": gorm.Expr("total_credits_used + ?", creditsUsed),
			"last_message_at":    time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConversationGone
	}
	msg := models.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreditsUsed:    creditsUsed,
	}
	if err := tx.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// AppendCharacterMessage is the generation worker's append path.
func (r *ConversationRepository) AppendCharacterMessage(conversationID uint, epoch int64, content string) (*models.Message, error) {
	var msg *models.Message
	err := r.db.Transaction(func(tx *gorm.DB) error {
		m, err := r.AppendMessageTx(tx, conversationID, epoch, domain.SenderCharacter, content, 0)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
