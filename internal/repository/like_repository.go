package repository

import (
	"context"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LikeRepository handles like rows. Each like lives under a deterministic ID
// built from the target and the liker, so a second like of the same target
// is a duplicate-key insert rather than a new row.
type LikeRepository struct {
	collection *mongo.Collection
}

// NewLikeRepository creates a new instance of LikeRepository
func NewLikeRepository(db *mongo.Database) *LikeRepository {
	return &LikeRepository{
		collection: db.Collection("likes"),
	}
}

// GetLike fetches a like row by its deterministic ID
func (r *LikeRepository) GetLike(ctx context.Context, id string) (*models.Like, error) {
	var like models.Like

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&like)
	if err != nil {
		return nil, err
	}

	return &like, nil
}

// GetLikesByIDs fetches several like rows at once. The feed uses this to
// annotate a page of posts for the viewer.
func (r *LikeRepository) GetLikesByIDs(ctx context.Context, ids []string) ([]models.Like, error) {
	var likes []models.Like

	if len(ids) == 0 {
		return likes, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch likes")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var like models.Like
		if err := cursor.Decode(&like); err != nil {
			logger.Log.WithError(err).Error("Failed to decode like")
			return nil, err
		}
		likes = append(likes, like)
	}

	return likes, nil
}

// GetLikesByTarget fetches every like of one target
func (r *LikeRepository) GetLikesByTarget(ctx context.Context, targetType, targetID string) ([]models.Like, error) {
	var likes []models.Like

	cursor, err := r.collection.Find(ctx, bson.M{
		"target_type": targetType,
		"target_id":   targetID,
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch target likes")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var like models.Like
		if err := cursor.Decode(&like); err != nil {
			logger.Log.WithError(err).Error("Failed to decode like")
			return nil, err
		}
		likes = append(likes, like)
	}

	return likes, nil
}

// CreateLike inserts a like row
func (r *LikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	like.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, like)
	if err != nil {
		logger.Log.WithError(err).WithField("like_id", like.ID).Error("Failed to insert like")
		return err
	}

	return nil
}

// DeleteLike removes a like row by its deterministic ID
func (r *LikeRepository) DeleteLike(ctx context.Context, id string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("like_id", id).Error("Failed to delete like")
		return false, err
	}

	return result.DeletedCount > 0, nil
}
