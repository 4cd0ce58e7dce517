package handlers

import (
	"net/http"
	"sync"

	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	jwtutil "github.com/gymbuddy/gymbuddy-backend/pkg/jwt"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WSMessage is the frame exchanged over the chat socket.
type WSMessage struct {
	Type           string `json:"type"` // "text", "typing", "status"
	ConversationID string `json:"conversation_id,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Typing         bool   `json:"typing,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// WSChatHandler runs the realtime chat socket. Messages sent here go through
// the same ChatService path as the REST endpoint, so previews and unread
// counters stay correct.
type WSChatHandler struct {
	ChatService    *services.ChatService
	AccountService *services.AccountService
	JWTSecret      string

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWSChatHandler creates a new instance of WSChatHandler.
func NewWSChatHandler(chatService *services.ChatService, accountService *services.AccountService, jwtSecret string) *WSChatHandler {
	return &WSChatHandler{
		ChatService:    chatService,
		AccountService: accountService,
		JWTSecret:      jwtSecret,
		clients:        make(map[string]*websocket.Conn),
	}
}

// broadcastStatus tells every connected client that an account went online or
// offline.
func (h *WSChatHandler) broadcastStatus(accountID, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.clients {
		conn.WriteJSON(map[string]interface{}{
			"type":       "status",
			"account_id": accountID,
			"status":     status,
		})
	}
}

// sendTo delivers a frame to one account if it is connected.
func (h *WSChatHandler) sendTo(accountID string, frame interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.clients[accountID]; ok {
		conn.WriteJSON(frame)
	}
}

// ChatWebSocketHandler upgrades the connection and pumps chat frames until
// the client goes away. Auth is a token query parameter since browsers cannot
// set headers on websocket dials.
func (h *WSChatHandler) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	accountHex := claims.AccountID
	accountID, err := primitive.ObjectIDFromHex(accountHex)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	log.WithField("account_id", accountHex).Info("WebSocket connected")

	h.mu.Lock()
	h.clients[accountHex] = conn
	h.mu.Unlock()
	h.AccountService.SetOnlineStatus(r.Context(), accountID, true)
	h.broadcastStatus(accountHex, "online")

	defer func() {
		h.mu.Lock()
		delete(h.clients, accountHex)
		h.mu.Unlock()
		h.AccountService.SetOnlineStatus(r.Context(), accountID, false)
		h.broadcastStatus(accountHex, "offline")
		conn.Close()
		log.WithField("account_id", accountHex).Info("WebSocket disconnected")
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		convID, err := primitive.ObjectIDFromHex(msg.ConversationID)
		if err != nil {
			conn.WriteJSON(map[string]string{"type": "error", "error": "invalid conversation id"})
			continue
		}

		if msg.Type == "typing" {
			if peer := h.conversationPeer(r, convID, accountID); peer != "" {
				h.sendTo(peer, map[string]interface{}{
					"type":            "typing",
					"conversation_id": msg.ConversationID,
					"sender_id":       accountHex,
					"typing":          msg.Typing,
				})
			}
			continue
		}

		if msg.Type == "text" && msg.Text != "" {
			created, err := h.ChatService.SendMessage(r.Context(), convID, accountID, msg.Text, "text")
			if err != nil {
				conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
				continue
			}

			frame := map[string]interface{}{
				"type":            "text",
				"id":              created.ID.Hex(),
				"conversation_id": msg.ConversationID,
				"sender_id":       accountHex,
				"text":            created.Content,
				"created_at":      created.CreatedAt,
			}
			if peer := h.conversationPeer(r, convID, accountID); peer != "" {
				h.sendTo(peer, frame)
			}
			conn.WriteJSON(frame)
		}
	}
}

// conversationPeer resolves the other party's hex id, or "" when the caller
// is not a participant.
func (h *WSChatHandler) conversationPeer(r *http.Request, convID, accountID primitive.ObjectID) string {
	conv, err := h.ChatService.GetConversation(r.Context(), convID, accountID)
	if err != nil {
		return ""
	}
	peer := conv.OtherParticipant(accountID)
	if peer == primitive.NilObjectID {
		return ""
	}
	return peer.Hex()
}
