package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// MilestoneHandler handles HTTP requests for the gamification engine.
type MilestoneHandler struct {
	Service *services.MilestoneService
}

// NewMilestoneHandler creates a new instance of MilestoneHandler.
func NewMilestoneHandler(service *services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{Service: service}
}

// GetAchievementsHandler lists the achievement catalog with the caller's
// progress merged in.
func (h *MilestoneHandler) GetAchievementsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	category := r.URL.Query().Get("category")
	unlockedOnly := r.URL.Query().Get("unlocked") == "true"

	views, err := h.Service.GetAchievements(r.Context(), accountID, category, unlockedOnly)
	if err != nil {
		log.WithError(err).Error("Failed to fetch achievements")
		http.Error(w, "Failed to fetch achievements", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// GetChallengesHandler lists challenges with the caller's participation.
func (h *MilestoneHandler) GetChallengesHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	category := r.URL.Query().Get("category")
	status := r.URL.Query().Get("status")
	joinedOnly := r.URL.Query().Get("joined") == "true"

	views, err := h.Service.GetChallenges(r.Context(), accountID, category, status, joinedOnly)
	if err != nil {
		log.WithError(err).Error("Failed to fetch challenges")
		http.Error(w, "Failed to fetch challenges", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// GetChallengeHandler fetches one challenge.
func (h *MilestoneHandler) GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	challengeID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	view, err := h.Service.GetChallenge(r.Context(), challengeID, accountID)
	if err != nil {
		http.Error(w, "Challenge not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// JoinChallengeHandler enrolls the caller into a challenge.
func (h *MilestoneHandler) JoinChallengeHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	challengeID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	participation, err := h.Service.JoinChallenge(r.Context(), challengeID, accountID)
	if err != nil {
		log.WithError(err).Warn("Failed to join challenge")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, participation)
}

// UpdateProgressHandler sets the caller's absolute challenge progress.
func (h *MilestoneHandler) UpdateProgressHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	challengeID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		Progress int    `json:"progress"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	participation, err := h.Service.UpdateChallengeProgress(r.Context(), challengeID, accountID, req.Progress, req.Notes)
	if err != nil {
		log.WithError(err).Warn("Failed to update challenge progress")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, participation)
}

// GetParticipantsHandler lists a challenge's participants by progress.
func (h *MilestoneHandler) GetParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	participants, err := h.Service.GetChallengeParticipants(r.Context(), challengeID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch participants")
		http.Error(w, "Failed to fetch participants", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, participants)
}

// GetLeaderboardHandler returns one page of the global ranking.
func (h *MilestoneHandler) GetLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	board, err := h.Service.GetLeaderboard(r.Context(), accountID, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to build leaderboard")
		http.Error(w, "Failed to build leaderboard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// GetSummaryHandler returns the caller's gamification dashboard.
func (h *MilestoneHandler) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.GetSummary(r.Context(), accountID)
	if err != nil {
		log.WithError(err).Error("Failed to build summary")
		http.Error(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// RecordActionHandler feeds a domain action into the achievement engine.
func (h *MilestoneHandler) RecordActionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req struct {
		ActionType string                 `json:"action_type"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActionType == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.Service.RecordAction(r.Context(), accountID, req.ActionType, req.Data); err != nil {
		log.WithError(err).Error("Failed to record action")
		http.Error(w, "Failed to record action", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
