package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// TrainerHandler handles HTTP requests for trainer profiles.
type TrainerHandler struct {
	Service *services.TrainerService
}

// NewTrainerHandler creates a new instance of TrainerHandler.
func NewTrainerHandler(service *services.TrainerService) *TrainerHandler {
	return &TrainerHandler{Service: service}
}

// ListTrainersHandler lists trainers, best rated first.
func (h *TrainerHandler) ListTrainersHandler(w http.ResponseWriter, r *http.Request) {
	trainers, err := h.Service.ListTrainers(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to fetch trainers")
		http.Error(w, "Failed to fetch trainers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, trainers)
}

// GetTrainerHandler fetches one trainer profile.
func (h *TrainerHandler) GetTrainerHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	trainer, err := h.Service.GetTrainer(r.Context(), trainerID)
	if err != nil {
		http.Error(w, "Trainer not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, trainer)
}

// GetTrainerStatsHandler aggregates a trainer's activity.
func (h *TrainerHandler) GetTrainerStatsHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	stats, err := h.Service.GetTrainerStats(r.Context(), trainerID)
	if err != nil {
		http.Error(w, "Trainer not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// --- Trainer console. The routes below run behind a trainer role gate.

// UpdateProfileHandler applies the trainer's profile edits.
func (h *TrainerHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	trainer, err := h.Service.UpdateTrainerProfile(r.Context(), trainerID, updates)
	if err != nil {
		log.WithError(err).Warn("Failed to update trainer profile")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, trainer)
}

// AddAvailabilityHandler appends a weekly session slot.
func (h *TrainerHandler) AddAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req struct {
		DayOfWeek string `json:"day_of_week"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	slot, err := h.Service.AddAvailability(r.Context(), trainerID, req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		log.WithError(err).Warn("Failed to add availability")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, slot)
}

// RemoveAvailabilityHandler deletes one session slot.
func (h *TrainerHandler) RemoveAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.Service.RemoveAvailability(r.Context(), trainerID, mux.Vars(r)["slotId"]); err != nil {
		log.WithError(err).Warn("Failed to remove availability")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
