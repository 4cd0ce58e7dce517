package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gymbuddy/gymbuddy-backend/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountHandler handles HTTP requests related to accounts and auth.
type AccountHandler struct {
	Service *services.AccountService
}

// NewAccountHandler creates a new instance of AccountHandler.
func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{Service: service}
}

// RegisterHandler handles account registration.
func (h *AccountHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string   `json:"email"`
		Password    string   `json:"password"`
		DisplayName string   `json:"display_name"`
		Role        string   `json:"role"`
		Interests   []string `json:"interests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode registration request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	account := &models.Account{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Interests:   req.Interests,
	}

	created, err := h.Service.RegisterAccount(r.Context(), account, req.Password)
	if err != nil {
		log.WithError(err).Warn("Failed to register account")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.WithField("accountID", created.ID.Hex()).Info("Account registered")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// LoginHandler handles login and token issuing.
func (h *AccountHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	account, token, err := h.Service.Authenticate(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		log.WithField("email", credentials.Email).Warn("Authentication failed")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	log.WithField("accountID", account.ID.Hex()).Info("Account logged in")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":   token,
		"account": account,
	})
}

// LogoutHandler flips the caller offline. Token invalidation is client-side.
func (h *AccountHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	if err := h.Service.SetOnlineStatus(r.Context(), accountID, false); err != nil {
		log.WithError(err).Error("Failed to set offline status")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

// VerifyTokenHandler echoes the claims of a valid token.
func (h *AccountHandler) VerifyTokenHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"account_id": claims.AccountID,
		"email":      claims.Email,
		"role":       claims.Role,
	})
}

// GetMeHandler returns the caller's full account record.
func (h *AccountHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	account, err := h.Service.GetAccount(r.Context(), accountID)
	if err != nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// UpdateMeHandler applies the caller's profile changes.
func (h *AccountHandler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	account, err := h.Service.UpdateAccount(r.Context(), accountID, updates)
	if err != nil {
		log.WithError(err).Warn("Failed to update account")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// GetAccountHandler returns another account's public profile.
func (h *AccountHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	profile, err := h.Service.GetPublicProfile(r.Context(), id)
	if err != nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// GetStatsHandler returns the derived counters block for an account.
func (h *AccountHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	stats, err := h.Service.GetAccountStats(r.Context(), id)
	if err != nil {
		log.WithError(err).Error("Failed to assemble account stats")
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetActiveHandler lists recently active accounts.
func (h *AccountHandler) GetActiveHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	profiles, err := h.Service.GetActiveAccounts(r.Context(), 15*time.Minute, limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch active accounts")
		http.Error(w, "Failed to fetch active accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profiles)
}

// SearchHandler finds accounts by name or email.
func (h *AccountHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	role := r.URL.Query().Get("role")
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	profiles, err := h.Service.SearchAccounts(r.Context(), query, role, limit)
	if err != nil {
		log.WithError(err).Error("Failed to search accounts")
		http.Error(w, "Failed to search accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profiles)
}
