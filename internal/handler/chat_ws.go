package handler

import (
	"fmt"
	"net/http"
	"time"

	"amoria/config"
	"amoria/internal/auth"
	"amoria/internal/repository"
	"amoria/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = (chatPongWait * 9) / 10

	// Messages replayed on connect so a reconnecting client catches up
	// before live delivery starts.
	chatReplayWindow = 50
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeChatWS upgrades to WebSocket for a conversation's live message
// stream; query: token, conversation_id. The requester must own the
// conversation. On connect the client joins the room and then the recent log
// is replayed into its send queue: at-least-once delivery, no gap between
// snapshot and live events.
func UpgradeChatWS(cfg *config.JWTConfig, convHub *ws.ConversationHub, convRepo *repository.ConversationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		convIDStr := c.Query("conversation_id")
		if token == "" || convIDStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and conversation_id required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var convID uint
		if _, err := fmt.Sscanf(convIDStr, "%d", &convID); err != nil || convID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
			return
		}
		if _, err := convRepo.GetOwned(convID, claims.UserID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := &ws.Client{
			UserID: claims.UserID,
			Send:   make(chan []byte, 256),
		}
		room := convHub.GetOrCreateRoom(convID)
		room.Join(client)
		defer func() {
			room.Leave(client)
			client.Close()
		}()
		// Join before the snapshot read: a message published in between is
		// delivered live and may also appear in the snapshot. Duplicates are
		// fine (clients key by message id); a gap is not.
		recent, err := convRepo.RecentMessages(convID, chatReplayWindow)
		if err != nil {
			return
		}
		for i := range recent {
			client.QueueMessage(&recent[i])
		}
		conn.SetReadDeadline(time.Now().Add(chatPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(chatPongWait))
			return nil
		})
		go func() {
			ticker := time.NewTicker(chatPingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.Send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
		// Sends go over REST; the read loop only keeps the connection alive.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
