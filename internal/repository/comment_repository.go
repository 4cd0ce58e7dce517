package repository

import (
	"context"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository handles database operations related to post comments
type CommentRepository struct {
	collection *mongo.Collection
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{
		collection: db.Collection("comments"),
	}
}

// CreateComment inserts a new comment
func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, comment)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert comment")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	comment.ID = insertedID

	return comment, nil
}

// GetCommentByID fetches a comment by its ID
func (r *CommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		logger.Log.WithError(err).WithField("comment_id", id.Hex()).Error("Failed to find comment")
		return nil, err
	}

	return &comment, nil
}

// GetCommentsByPost fetches a post's comments, oldest first
func (r *CommentRepository) GetCommentsByPost(ctx context.Context, postID primitive.ObjectID, limit int64) ([]models.Comment, error) {
	var comments []models.Comment

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, findOptions)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", postID.Hex()).Error("Failed to fetch comments")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var comment models.Comment
		if err := cursor.Decode(&comment); err != nil {
			logger.Log.WithError(err).Error("Failed to decode comment")
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

// IncrementLikeCount atomically bumps a comment's like counter
func (r *CommentRepository) IncrementLikeCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"like_count": 1}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("comment_id", id.Hex()).Error("Failed to increment comment like count")
		return err
	}
	return nil
}

// DecrementLikeCount reads the current counter and writes it back one lower,
// never below zero.
func (r *CommentRepository) DecrementLikeCount(ctx context.Context, id primitive.ObjectID) error {
	comment, err := r.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}

	next := comment.LikeCount - 1
	if next < 0 {
		next = 0
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"like_count": next}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("comment_id", id.Hex()).Error("Failed to decrement comment like count")
		return err
	}
	return nil
}

// DeleteComment removes a comment
func (r *CommentRepository) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("comment_id", id.Hex()).Error("Failed to delete comment")
		return err
	}
	return nil
}

// DeleteCommentsByPost removes every comment attached to a post
func (r *CommentRepository) DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", postID.Hex()).Error("Failed to delete post comments")
		return err
	}
	return nil
}
