package ws

import (
	"encoding/json"
	"sync"

	"amoria/internal/models"
)

// Room is one live subscription target per conversation. The server is the
// only publisher (messages are sent over REST), so broadcasts go to every
// member including whoever caused the event.
type Room struct {
	ConversationID uint
	clients        map[*Client]struct{}
	mu             sync.RWMutex
}

func NewRoom(conversationID uint) *Room {
	return &Room{
		ConversationID: conversationID,
		clients:        make(map[*Client]struct{}),
	}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *Room) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) Broadcast(payload interface{}) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

// ConversationHub holds all live rooms by conversation ID.
type ConversationHub struct {
	mu    sync.RWMutex
	rooms map[uint]*Room
}

func NewConversationHub() *ConversationHub {
	return &ConversationHub{rooms: make(map[uint]*Room)}
}

func (h *ConversationHub) GetOrCreateRoom(conversationID uint) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[conversationID]; ok {
		return r
	}
	r := NewRoom(conversationID)
	h.rooms[conversationID] = r
	return r
}

func (h *ConversationHub) GetRoom(conversationID uint) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[conversationID]
}

func (h *ConversationHub) RemoveRoom(conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, conversationID)
}

func messagePayload(msg *models.Message) map[string]interface{} {
	return map[string]interface{}{
		"type":         "message",
		"id":           msg.ID,
		"sender":       msg.Sender,
		"content":      msg.Content,
		"credits_used": msg.CreditsUsed,
		"created_at":   msg.CreatedAt,
	}
}

// PublishMessage pushes a newly appended message to the conversation's room.
func (h *ConversationHub) PublishMessage(conversationID uint, msg *models.Message) {
	room := h.GetRoom(conversationID)
	if room == nil {
		return
	}
	room.Broadcast(messagePayload(msg))
}

// QueueMessage enqueues one message event directly onto a client's send
// channel, in the shape the room broadcasts. Used to replay the recent log
// on connect before the client joins the room.
func (c *Client) QueueMessage(msg *models.Message) {
	data, _ := json.Marshal(messagePayload(msg))
	c.trySend(data)
}

// PublishTyping signals that the character's reply is being generated, so
// clients can render a pending state instead of an empty message.
func (h *ConversationHub) PublishTyping(conversationID uint) {
	room := h.GetRoom(conversationID)
	if room == nil {
		return
	}
	room.Broadcast(map[string]interface{}{
		"type":            "typing",
		"conversation_id": conversationID,
	})
}
