package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// ConnectionHandler handles HTTP requests for the social graph.
type ConnectionHandler struct {
	Service *services.ConnectionService
}

// NewConnectionHandler creates a new instance of ConnectionHandler.
func NewConnectionHandler(service *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{Service: service}
}

// SendRequestHandler creates a pending connection request.
func (h *ConnectionHandler) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req struct {
		AccountID string `json:"account_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	otherID, ok := pathID(w, req.AccountID)
	if !ok {
		return
	}

	conn, err := h.Service.SendRequest(r.Context(), accountID, otherID, req.Message)
	if err != nil {
		log.WithError(err).Warn("Failed to send connection request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, conn)
}

// RespondHandler answers a pending request with accepted, rejected or
// blocked.
func (h *ConnectionHandler) RespondHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	conn, err := h.Service.RespondToRequest(r.Context(), connectionID, accountID, req.Status)
	if err != nil {
		log.WithError(err).Warn("Failed to respond to connection request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, conn)
}

// GetConnectionsHandler lists the caller's connections.
func (h *ConnectionHandler) GetConnectionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	views, err := h.Service.GetConnections(r.Context(), accountID, r.URL.Query().Get("status"))
	if err != nil {
		log.WithError(err).Error("Failed to fetch connections")
		http.Error(w, "Failed to fetch connections", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// GetPendingHandler lists requests awaiting the caller's answer.
func (h *ConnectionHandler) GetPendingHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	views, err := h.Service.GetPendingRequests(r.Context(), accountID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch pending requests")
		http.Error(w, "Failed to fetch pending requests", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// CheckStatusHandler reports the relationship with another account.
func (h *ConnectionHandler) CheckStatusHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	status, err := h.Service.CheckStatus(r.Context(), accountID, otherID)
	if err != nil {
		log.WithError(err).Error("Failed to check connection status")
		http.Error(w, "Failed to check status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// RemoveHandler deletes the connection with another account.
func (h *ConnectionHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.RemoveConnection(r.Context(), accountID, otherID); err != nil {
		log.WithError(err).Warn("Failed to remove connection")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// GetSuggestionsHandler proposes accounts the caller might connect with.
func (h *ConnectionHandler) GetSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	suggestions, err := h.Service.GetSuggestions(r.Context(), accountID, limit)
	if err != nil {
		log.WithError(err).Error("Failed to build suggestions")
		http.Error(w, "Failed to build suggestions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}
