package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a two-party chat thread. The per-party maps are keyed by
// account id hex so each side's unread/archive/pin state can be updated with
// a dotted-path write without touching the other side's entry.
type Conversation struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ParticipantIDs      []primitive.ObjectID `bson:"participant_ids" json:"participant_ids"`
	LastMessage         string               `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageTime     *time.Time           `bson:"last_message_time,omitempty" json:"last_message_time,omitempty"`
	LastMessageSenderID string               `bson:"last_message_sender_id,omitempty" json:"last_message_sender_id,omitempty"`
	UnreadCount         map[string]int       `bson:"unread_count" json:"unread_count"`
	IsArchived          map[string]bool      `bson:"is_archived" json:"is_archived"`
	IsPinned            map[string]bool      `bson:"is_pinned" json:"is_pinned"`
	LastRead            map[string]*time.Time `bson:"last_read" json:"last_read"`
	CreatedAt           time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the account is a party to the conversation.
func (c *Conversation) HasParticipant(accountID primitive.ObjectID) bool {
	for _, id := range c.ParticipantIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of the given account. The zero
// ObjectID is returned when the account is not a participant.
func (c *Conversation) OtherParticipant(accountID primitive.ObjectID) primitive.ObjectID {
	if !c.HasParticipant(accountID) {
		return primitive.NilObjectID
	}
	for _, id := range c.ParticipantIDs {
		if id != accountID {
			return id
		}
	}
	return primitive.NilObjectID
}

// ConversationView is the per-caller rendering of a conversation.
type ConversationView struct {
	ID               primitive.ObjectID `json:"id"`
	AccountID        primitive.ObjectID `json:"account_id"`
	AccountName      string             `json:"account_name"`
	AccountPhoto     string             `json:"account_photo,omitempty"`
	LastMessage      string             `json:"last_message,omitempty"`
	LastMessageTime  *time.Time         `json:"last_message_time,omitempty"`
	IsOwnLastMessage bool               `json:"is_own_last_message"`
	UnreadCount      int                `json:"unread_count"`
	IsOnline         bool               `json:"is_online"`
	IsArchived       bool               `json:"is_archived"`
	IsPinned         bool               `json:"is_pinned"`
}
