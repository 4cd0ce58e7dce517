package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/config"
	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// ChatHandler handles HTTP requests for conversations and messages.
type ChatHandler struct {
	Service *services.ChatService
	Config  *config.Config
}

// NewChatHandler creates a new instance of ChatHandler.
func NewChatHandler(service *services.ChatService, cfg *config.Config) *ChatHandler {
	return &ChatHandler{Service: service, Config: cfg}
}

// StartConversationHandler opens (or returns) the direct conversation with
// another account.
func (h *ChatHandler) StartConversationHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req struct {
		AccountID string `json:"account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	otherID, ok := pathID(w, req.AccountID)
	if !ok {
		return
	}

	conv, err := h.Service.GetOrCreateConversation(r.Context(), accountID, otherID)
	if err != nil {
		log.WithError(err).Warn("Failed to open conversation")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// GetConversationsHandler lists the caller's conversation previews.
func (h *ChatHandler) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "true"
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	views, err := h.Service.GetConversations(r.Context(), accountID, includeArchived, skip, limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch conversations")
		http.Error(w, "Failed to fetch conversations", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// UpdateConversationHandler flips the caller's pinned or archived flag, or
// marks the thread read.
func (h *ChatHandler) UpdateConversationHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	convID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		IsPinned   *bool `json:"is_pinned"`
		IsArchived *bool `json:"is_archived"`
		MarkRead   *bool `json:"mark_read"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateConversation(r.Context(), convID, accountID, req.IsPinned, req.IsArchived, req.MarkRead); err != nil {
		log.WithError(err).Warn("Failed to update conversation")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteConversationHandler archives for the caller, deleting for good once
// both sides have done so.
func (h *ChatHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	convID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.DeleteConversation(r.Context(), convID, accountID); err != nil {
		log.WithError(err).Warn("Failed to delete conversation")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SendMessageHandler appends a message to a conversation.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	convID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		Content     string `json:"content"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), convID, accountID, req.Content, req.ContentType)
	if err != nil {
		log.WithError(err).Warn("Failed to send message")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// GetMessagesHandler returns a page of messages, oldest first. Fetching a
// page also marks it read.
func (h *ChatHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	convID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid before timestamp", http.StatusBadRequest)
			return
		}
		before = parsed
	}

	messages, err := h.Service.GetMessages(r.Context(), convID, accountID, limit, before)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch messages")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// UpdateMessageHandler edits content (sender) or flips the read flag
// (recipient).
func (h *ChatHandler) UpdateMessageHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	messageID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		Content *string `json:"content"`
		IsRead  *bool   `json:"is_read"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	msg, err := h.Service.UpdateMessage(r.Context(), messageID, accountID, req.Content, req.IsRead)
	if err != nil {
		log.WithError(err).Warn("Failed to update message")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// UploadMediaHandler stores a chat image and returns its URL.
func (h *ChatHandler) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	url, err := saveUpload(r, h.Config.UploadDir)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
