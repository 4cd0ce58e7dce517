package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is delivered to exactly one account. Source name and photo
// are snapshotted at creation time.
type Notification struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	AccountID       primitive.ObjectID     `bson:"account_id" json:"account_id"`
	Type            string                 `bson:"type" json:"type"`
	Message         string                 `bson:"message" json:"message"`
	SourceAccountID *primitive.ObjectID    `bson:"source_account_id,omitempty" json:"source_account_id,omitempty"`
	SourceName      string                 `bson:"source_name,omitempty" json:"source_name,omitempty"`
	SourcePhoto     string                 `bson:"source_photo,omitempty" json:"source_photo,omitempty"`
	Data            map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	IsRead          bool                   `bson:"is_read" json:"is_read"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
}
