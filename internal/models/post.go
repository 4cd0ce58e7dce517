package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post privacy scopes.
const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
	PrivacyGym     = "gym"
	PrivacyPrivate = "private"
)

// Post is a feed entry. Author name and photo are snapshotted at write time.
type Post struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AccountID    primitive.ObjectID  `bson:"account_id" json:"account_id"`
	AccountName  string              `bson:"account_name" json:"account_name"`
	AccountPhoto string              `bson:"account_photo,omitempty" json:"account_photo,omitempty"`
	Content      string              `bson:"content" json:"content"`
	Privacy      string              `bson:"privacy" json:"privacy"`
	PostType     string              `bson:"post_type" json:"post_type"`
	Media        []string            `bson:"media,omitempty" json:"media,omitempty"`
	Tags         []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	Location     string              `bson:"location,omitempty" json:"location,omitempty"`
	GymID        *primitive.ObjectID `bson:"gym_id,omitempty" json:"gym_id,omitempty"`
	LikeCount    int                 `bson:"like_count" json:"like_count"`
	CommentCount int                 `bson:"comment_count" json:"comment_count"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`

	// Liked is viewer-relative and never persisted.
	Liked bool `bson:"-" json:"liked"`
}

// Comment belongs to a post.
type Comment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID       primitive.ObjectID `bson:"post_id" json:"post_id"`
	AccountID    primitive.ObjectID `bson:"account_id" json:"account_id"`
	AccountName  string             `bson:"account_name" json:"account_name"`
	AccountPhoto string             `bson:"account_photo,omitempty" json:"account_photo,omitempty"`
	Content      string             `bson:"content" json:"content"`
	LikeCount    int                `bson:"like_count" json:"like_count"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`

	Liked bool `bson:"-" json:"liked"`
}

// Like is a join entity. Its document id is "{targetType}_{targetId}_{accountId}"
// which guarantees at most one like per account and target.
type Like struct {
	ID           string             `bson:"_id" json:"-"`
	AccountID    primitive.ObjectID `bson:"account_id" json:"account_id"`
	AccountName  string             `bson:"account_name" json:"account_name"`
	AccountPhoto string             `bson:"account_photo,omitempty" json:"account_photo,omitempty"`
	TargetID     string             `bson:"target_id" json:"target_id"`
	TargetType   string             `bson:"target_type" json:"target_type"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// LikeID builds the deterministic like document id.
func LikeID(targetType, targetID string, accountID primitive.ObjectID) string {
	return targetType + "_" + targetID + "_" + accountID.Hex()
}
