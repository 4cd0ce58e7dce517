package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
)

func feedPost(id primitive.ObjectID, createdAt time.Time) models.Post {
	return models.Post{ID: id, CreatedAt: createdAt}
}

func TestMergeFeed(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := feedPost(primitive.NewObjectID(), base.Add(1*time.Hour))
	b := feedPost(primitive.NewObjectID(), base.Add(3*time.Hour))
	c := feedPost(primitive.NewObjectID(), base.Add(2*time.Hour))

	// The same post can surface from several branches, e.g. a public post by
	// a connection. It must appear once.
	merged := MergeFeed(
		[]models.Post{a, b},
		[]models.Post{b, c},
		[]models.Post{a},
	)

	assert.Len(t, merged, 3)
	assert.Equal(t, b.ID, merged[0].ID)
	assert.Equal(t, c.ID, merged[1].ID)
	assert.Equal(t, a.ID, merged[2].ID)
}

func TestMergeFeed_Empty(t *testing.T) {
	assert.Empty(t, MergeFeed())
	assert.Empty(t, MergeFeed(nil, []models.Post{}))
}

func TestPageSlice(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]models.Post, 5)
	for i := range posts {
		posts[i] = feedPost(primitive.NewObjectID(), base.Add(time.Duration(-i)*time.Hour))
	}

	page := PageSlice(posts, 0, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, posts[0].ID, page[0].ID)

	page = PageSlice(posts, 2, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, posts[2].ID, page[0].ID)

	// Last page is short.
	page = PageSlice(posts, 4, 2)
	assert.Len(t, page, 1)

	assert.Empty(t, PageSlice(posts, 5, 2))
	assert.Empty(t, PageSlice(posts, 100, 2))
}
