package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connection statuses. Pending is the only state that can transition; the
// other three are terminal.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
	ConnectionBlocked  = "blocked"
)

// Connection is the social link between two accounts. At most one document
// exists per unordered pair.
type Connection struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ParticipantIDs []primitive.ObjectID `bson:"participant_ids" json:"participant_ids"`
	RequesterID    primitive.ObjectID   `bson:"requester_id" json:"requester_id"`
	RecipientID    primitive.ObjectID   `bson:"recipient_id" json:"recipient_id"`
	Status         string               `bson:"status" json:"status"`
	Message        string               `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the account is part of the connection.
func (c *Connection) HasParticipant(accountID primitive.ObjectID) bool {
	for _, id := range c.ParticipantIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of the given account.
func (c *Connection) OtherParticipant(accountID primitive.ObjectID) primitive.ObjectID {
	for _, id := range c.ParticipantIDs {
		if id != accountID {
			return id
		}
	}
	return primitive.NilObjectID
}

// ConnectionView is the per-caller rendering of a connection.
type ConnectionView struct {
	ID          primitive.ObjectID `json:"id"`
	AccountID   primitive.ObjectID `json:"account_id"`
	Status      string             `json:"status"`
	DisplayName string             `json:"display_name"`
	PhotoURL    string             `json:"photo_url,omitempty"`
	IsRequester bool               `json:"is_requester"`
	Message     string             `json:"message,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
