package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLikeID(t *testing.T) {
	accountID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	id := LikeID("post", postID.Hex(), accountID)
	assert.Equal(t, "post_"+postID.Hex()+"_"+accountID.Hex(), id)

	// Same inputs always yield the same id, which is what makes likes
	// idempotent at the storage layer.
	assert.Equal(t, id, LikeID("post", postID.Hex(), accountID))

	commentID := primitive.NewObjectID()
	assert.NotEqual(t, id, LikeID("comment", commentID.Hex(), accountID))
}
