package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// GymHandler handles HTTP requests for the gym directory and gym admin
// console.
type GymHandler struct {
	Service *services.GymService
}

// NewGymHandler creates a new instance of GymHandler.
func NewGymHandler(service *services.GymService) *GymHandler {
	return &GymHandler{Service: service}
}

// ListGymsHandler searches the gym directory.
func (h *GymHandler) ListGymsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	gyms, err := h.Service.ListGyms(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch gyms")
		http.Error(w, "Failed to fetch gyms", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, gyms)
}

// GetGymHandler fetches one gym.
func (h *GymHandler) GetGymHandler(w http.ResponseWriter, r *http.Request) {
	gymID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	gym, err := h.Service.GetGym(r.Context(), gymID)
	if err != nil {
		http.Error(w, "Gym not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, gym)
}

// GetGymTrainersHandler lists the trainers of a gym.
func (h *GymHandler) GetGymTrainersHandler(w http.ResponseWriter, r *http.Request) {
	gymID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	trainers, err := h.Service.GetTrainers(r.Context(), gymID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch gym trainers")
		http.Error(w, "Failed to fetch trainers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, trainers)
}

// CheckInHandler records a gym visit for the caller.
func (h *GymHandler) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	gymID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		Facilities []string `json:"facilities"`
	}
	// Body is optional for a bare check-in.
	_ = json.NewDecoder(r.Body).Decode(&req)

	checkin, err := h.Service.CheckIn(r.Context(), gymID, accountID, req.Facilities)
	if err != nil {
		log.WithError(err).Warn("Failed to check in")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, checkin)
}

// --- Gym admin console. The routes below run behind a gym_admin role gate.

// CreateGymHandler registers the caller's gym.
func (h *GymHandler) CreateGymHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	var gym models.Gym
	if err := json.NewDecoder(r.Body).Decode(&gym); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.Service.CreateGym(r.Context(), adminID, &gym)
	if err != nil {
		log.WithError(err).Warn("Failed to create gym")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetOwnGymHandler fetches the gym the caller manages.
func (h *GymHandler) GetOwnGymHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	gym, err := h.Service.GetGymByAdmin(r.Context(), adminID)
	if err != nil {
		http.Error(w, "No gym for this admin", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, gym)
}

// UpdateOwnGymHandler applies the admin's edits to their gym.
func (h *GymHandler) UpdateOwnGymHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	gym, err := h.Service.GetGymByAdmin(r.Context(), adminID)
	if err != nil {
		http.Error(w, "No gym for this admin", http.StatusNotFound)
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	updated, err := h.Service.UpdateGym(r.Context(), gym.ID, adminID, updates)
	if err != nil {
		log.WithError(err).Warn("Failed to update gym")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// GetOwnGymStatsHandler aggregates the admin's gym activity.
func (h *GymHandler) GetOwnGymStatsHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	gym, err := h.Service.GetGymByAdmin(r.Context(), adminID)
	if err != nil {
		http.Error(w, "No gym for this admin", http.StatusNotFound)
		return
	}

	stats, err := h.Service.GetStats(r.Context(), gym.ID)
	if err != nil {
		log.WithError(err).Error("Failed to aggregate gym stats")
		http.Error(w, "Failed to aggregate stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetOwnGymMembersHandler lists the admin's gym roster.
func (h *GymHandler) GetOwnGymMembersHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	gym, err := h.Service.GetGymByAdmin(r.Context(), adminID)
	if err != nil {
		http.Error(w, "No gym for this admin", http.StatusNotFound)
		return
	}

	members, err := h.Service.GetMembers(r.Context(), gym.ID, r.URL.Query().Get("q"))
	if err != nil {
		log.WithError(err).Error("Failed to fetch gym members")
		http.Error(w, "Failed to fetch members", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

// AddMemberHandler enrolls an account into the admin's gym.
func (h *GymHandler) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	gym, err := h.Service.GetGymByAdmin(r.Context(), adminID)
	if err != nil {
		http.Error(w, "No gym for this admin", http.StatusNotFound)
		return
	}

	var req struct {
		AccountID      string `json:"account_id"`
		MembershipType string `json:"membership_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	accountID, ok := pathID(w, req.AccountID)
	if !ok {
		return
	}

	member, err := h.Service.AddMember(r.Context(), gym.ID, accountID, req.MembershipType)
	if err != nil {
		log.WithError(err).Warn("Failed to add gym member")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// RemoveMemberHandler takes an account off the admin's gym roster.
func (h *GymHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}

	gym, err := h.Service.GetGymByAdmin(r.Context(), adminID)
	if err != nil {
		http.Error(w, "No gym for this admin", http.StatusNotFound)
		return
	}

	accountID, ok := pathID(w, mux.Vars(r)["accountId"])
	if !ok {
		return
	}

	if err := h.Service.RemoveMember(r.Context(), gym.ID, accountID); err != nil {
		log.WithError(err).Warn("Failed to remove gym member")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
