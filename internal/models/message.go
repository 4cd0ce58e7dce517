package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message belongs to a conversation. Sender name and photo are snapshotted
// at send time and never refreshed.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderName     string             `bson:"sender_name" json:"sender_name"`
	SenderPhoto    string             `bson:"sender_photo,omitempty" json:"sender_photo,omitempty"`
	Content        string             `bson:"content" json:"content"`
	ContentType    string             `bson:"content_type" json:"content_type"`
	IsRead         bool               `bson:"is_read" json:"is_read"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
