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

// PostRepository handles database operations related to feed posts
type PostRepository struct {
	collection *mongo.Collection
}

// NewPostRepository creates a new instance of PostRepository
func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		collection: db.Collection("posts"),
	}
}

// CreatePost inserts a new post
func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, post)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert post")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	post.ID = insertedID

	logger.Log.WithField("post_id", post.ID.Hex()).Info("Post created")
	return post, nil
}

// GetPostByID fetches a post by its ID
func (r *PostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to find post")
		return nil, err
	}

	return &post, nil
}

// FindPosts runs an arbitrary filter, newest first. The feed assembles its
// branches from several of these queries.
func (r *PostRepository) FindPosts(ctx context.Context, filter bson.M, limit int64) ([]models.Post, error) {
	var posts []models.Post

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch posts")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var post models.Post
		if err := cursor.Decode(&post); err != nil {
			logger.Log.WithError(err).Error("Failed to decode post")
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// GetPostsByAccount fetches posts by a single author, restricted to the
// privacy levels the viewer may see.
func (r *PostRepository) GetPostsByAccount(ctx context.Context, accountID primitive.ObjectID, privacies []string, limit int64) ([]models.Post, error) {
	filter := bson.M{"account_id": accountID}
	if len(privacies) > 0 {
		filter["privacy"] = bson.M{"$in": privacies}
	}
	return r.FindPosts(ctx, filter, limit)
}

// UpdatePost applies a partial update to a post
func (r *PostRepository) UpdatePost(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to update post")
		return err
	}
	return nil
}

// IncrementLikeCount atomically bumps the like counter
func (r *PostRepository) IncrementLikeCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"like_count": 1}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to increment like count")
		return err
	}
	return nil
}

// DecrementLikeCount reads the current counter and writes it back one lower,
// never below zero.
func (r *PostRepository) DecrementLikeCount(ctx context.Context, id primitive.ObjectID) error {
	post, err := r.GetPostByID(ctx, id)
	if err != nil {
		return err
	}

	next := post.LikeCount - 1
	if next < 0 {
		next = 0
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"like_count": next}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to decrement like count")
		return err
	}
	return nil
}

// IncrementCommentCount atomically bumps the comment counter
func (r *PostRepository) IncrementCommentCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"comment_count": 1}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to increment comment count")
		return err
	}
	return nil
}

// DecrementCommentCount reads the current counter and writes it back one
// lower, never below zero.
func (r *PostRepository) DecrementCommentCount(ctx context.Context, id primitive.ObjectID) error {
	post, err := r.GetPostByID(ctx, id)
	if err != nil {
		return err
	}

	next := post.CommentCount - 1
	if next < 0 {
		next = 0
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"comment_count": next}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to decrement comment count")
		return err
	}
	return nil
}

// DeletePost removes a post
func (r *PostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id.Hex()).Error("Failed to delete post")
		return err
	}

	logger.Log.WithField("post_id", id.Hex()).Info("Post deleted")
	return nil
}

// CountPostsByAccount counts every post an account has authored
func (r *PostRepository) CountPostsByAccount(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"account_id": accountID})
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to count posts")
		return 0, err
	}
	return count, nil
}
