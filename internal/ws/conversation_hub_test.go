package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"amoria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
		return nil
	}
}

func TestRoomBroadcastReachesAllMembers(t *testing.T) {
	hub := NewConversationHub()
	room := hub.GetOrCreateRoom(7)
	a := &Client{UserID: 1, Send: make(chan []byte, 8)}
	b := &Client{UserID: 1, Send: make(chan []byte, 8)}
	room.Join(a)
	room.Join(b)

	hub.PublishMessage(7, &models.Message{ID: 42, Sender: "character", Content: "hi"})

	for _, c := range []*Client{a, b} {
		payload := drain(t, c)
		assert.Equal(t, "message", payload["type"])
		assert.Equal(t, float64(42), payload["id"])
		assert.Equal(t, "hi", payload["content"])
	}
}

func TestPublishToMissingRoomIsNoop(t *testing.T) {
	hub := NewConversationHub()
	hub.PublishMessage(99, &models.Message{ID: 1, Content: "nobody listening"})
	hub.PublishTyping(99)
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewConversationHub()
	room := hub.GetOrCreateRoom(7)
	c := &Client{UserID: 1, Send: make(chan []byte, 8)}
	room.Join(c)
	room.Leave(c)

	hub.PublishTyping(7)
	select {
	case <-c.Send:
		t.Fatal("client received an event after leaving")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, room.ClientCount())
}

func TestQueueMessageMatchesBroadcastShape(t *testing.T) {
	c := &Client{UserID: 1, Send: make(chan []byte, 8)}
	c.QueueMessage(&models.Message{ID: 5, Sender: "user", Content: "replayed", CreditsUsed: 10})

	payload := drain(t, c)
	assert.Equal(t, "message", payload["type"])
	assert.Equal(t, float64(5), payload["id"])
	assert.Equal(t, "replayed", payload["content"])
	assert.Equal(t, float64(10), payload["credits_used"])
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	hub := NewConversationHub()
	room := hub.GetOrCreateRoom(7)
	slow := &Client{UserID: 1, Send: make(chan []byte)} // unbuffered, nobody reading
	ok := &Client{UserID: 2, Send: make(chan []byte, 8)}
	room.Join(slow)
	room.Join(ok)

	done := make(chan struct{})
	go func() {
		hub.PublishTyping(7)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	payload := drain(t, ok)
	assert.Equal(t, "typing", payload["type"])
}

// Disconnects racing a broadcast must never hit a closed Send channel.
func TestBroadcastDuringCloseDoesNotPanic(t *testing.T) {
	hub := NewConversationHub()
	room := hub.GetOrCreateRoom(1)

	const members = 64
	clients := make([]*Client, 0, members)
	for i := 0; i < members; i++ {
		c := &Client{UserID: uint(i + 1), Send: make(chan []byte, 1)}
		room.Join(c)
		clients = append(clients, c)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			room.Broadcast(map[string]interface{}{"type": "typing"})
		}
	}()
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			c.Close()
		}(c)
	}
	wg.Wait()
}

func TestBalanceFanoutDuringCloseDoesNotPanic(t *testing.T) {
	hub := NewHub()
	const members = 32
	clients := make([]*Client, 0, members)
	for i := 0; i < members; i++ {
		c := &Client{UserID: 1, Send: make(chan []byte, 1)}
		hub.Register(c)
		clients = append(clients, c)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.PublishBalance(1, int64(i))
		}
	}()
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			c.Close()
		}(c)
	}
	wg.Wait()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestQueueMessageToClosedClient(t *testing.T) {
	c := &Client{UserID: 1, Send: make(chan []byte, 8)}
	c.Close()
	c.QueueMessage(&models.Message{ID: 1, Content: "late"})
}

func TestHubBalanceFanout(t *testing.T) {
	hub := NewHub()
	mine := &Client{UserID: 1, Send: make(chan []byte, 8)}
	alsoMine := &Client{UserID: 1, Send: make(chan []byte, 8)}
	other := &Client{UserID: 2, Send: make(chan []byte, 8)}
	hub.Register(mine)
	hub.Register(alsoMine)
	hub.Register(other)

	hub.PublishBalance(1, 90)

	for _, c := range []*Client{mine, alsoMine} {
		payload := drain(t, c)
		assert.Equal(t, "balance", payload["type"])
		assert.Equal(t, float64(90), payload["balance"])
	}
	select {
	case <-other.Send:
		t.Fatal("balance leaked to another user")
	case <-time.After(50 * time.Millisecond):
	}

	mine.Close()
	alsoMine.Close()
	other.Close()
	assert.Equal(t, 0, hub.ClientCount())
}
