package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gymbuddy/gymbuddy-backend/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// callerID extracts the authenticated account id from the request context.
// It writes the error response itself and reports success via ok.
func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}

	return id, true
}

// pathID parses an ObjectID path variable, writing the error response on
// failure.
func pathID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeJSON encodes a response body with the JSON content type.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
