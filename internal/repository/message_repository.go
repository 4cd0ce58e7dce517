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

// MessageRepository handles database operations related to chat messages
type MessageRepository struct {
	collection *mongo.Collection
}

// NewMessageRepository creates a new instance of MessageRepository
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		collection: db.Collection("messages"),
	}
}

// CreateMessage inserts a new message
func (r *MessageRepository) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert message")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	msg.ID = insertedID

	return msg, nil
}

// GetMessageByID fetches a message by its ID
func (r *MessageRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		logger.Log.WithError(err).WithField("message_id", id.Hex()).Error("Failed to find message")
		return nil, err
	}

	return &msg, nil
}

// GetMessages fetches a page of messages for a conversation, newest first.
// When before is non-zero only messages older than it are returned.
func (r *MessageRepository) GetMessages(ctx context.Context, conversationID primitive.ObjectID, limit int64, before time.Time) ([]models.Message, error) {
	var messages []models.Message

	filter := bson.M{"conversation_id": conversationID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", conversationID.Hex()).Error("Failed to fetch messages")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			logger.Log.WithError(err).Error("Failed to decode message")
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkMessagesRead flips the read flag on the given messages in one batch
func (r *MessageRepository) MarkMessagesRead(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}}))
	}

	_, err := r.collection.BulkWrite(ctx, writes)
	if err != nil {
		logger.Log.WithError(err).WithField("count", len(ids)).Error("Failed to mark messages read")
		return err
	}

	return nil
}

// UpdateMessage applies a partial update to a message
func (r *MessageRepository) UpdateMessage(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("message_id", id.Hex()).Error("Failed to update message")
		return err
	}
	return nil
}

// DeleteMessagesByConversation removes every message of a conversation
func (r *MessageRepository) DeleteMessagesByConversation(ctx context.Context, conversationID primitive.ObjectID) error {
	result, err := r.collection.DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", conversationID.Hex()).Error("Failed to delete conversation messages")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"conversation_id": conversationID.Hex(),
		"deleted":         result.DeletedCount,
	}).Info("Conversation messages deleted")
	return nil
}
