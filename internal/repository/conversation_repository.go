package repository

import (
	"context"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ConversationRepository handles database operations related to conversations.
// Per-party state (unread counters, archived and pinned flags, read markers)
// is stored in maps keyed by the account's hex ID.
type ConversationRepository struct {
	collection *mongo.Collection
}

// NewConversationRepository creates a new instance of ConversationRepository
func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{
		collection: db.Collection("conversations"),
	}
}

// CreateConversation inserts a new conversation
func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, conv)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert conversation")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	conv.ID = insertedID

	logger.Log.WithField("conversation_id", conv.ID.Hex()).Info("Conversation created")
	return conv, nil
}

// GetConversationByID fetches a conversation by its ID
func (r *ConversationRepository) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var conv models.Conversation

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", id.Hex()).Error("Failed to find conversation")
		return nil, err
	}

	return &conv, nil
}

// GetConversationsByParticipant fetches every conversation an account takes part in
func (r *ConversationRepository) GetConversationsByParticipant(ctx context.Context, accountID primitive.ObjectID) ([]models.Conversation, error) {
	var conversations []models.Conversation

	cursor, err := r.collection.Find(ctx, bson.M{"participant_ids": accountID})
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch conversations")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var conv models.Conversation
		if err := cursor.Decode(&conv); err != nil {
			logger.Log.WithError(err).Error("Failed to decode conversation")
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// FindDirectConversation fetches the conversation holding exactly the given
// pair, if one exists.
func (r *ConversationRepository) FindDirectConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	var conv models.Conversation

	filter := bson.M{"participant_ids": bson.M{"$all": []primitive.ObjectID{a, b}}}
	err := r.collection.FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

// UpdateConversation applies a partial update to a conversation document.
// Callers use dotted paths for per-party map fields.
func (r *ConversationRepository) UpdateConversation(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", id.Hex()).Error("Failed to update conversation")
		return err
	}
	return nil
}

// RecordMessage refreshes the conversation preview after a send: last message
// snapshot, unarchive for both parties and an unread bump for the recipient.
func (r *ConversationRepository) RecordMessage(ctx context.Context, id primitive.ObjectID, preview string, senderID, recipientID primitive.ObjectID, sentAt time.Time) error {
	set := bson.M{
		"last_message":           preview,
		"last_message_time":      sentAt,
		"last_message_sender_id": senderID.Hex(),
		"updated_at":             time.Now(),
	}
	set["is_archived."+senderID.Hex()] = false
	set["is_archived."+recipientID.Hex()] = false

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"unread_count." + recipientID.Hex(): 1},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", id.Hex()).Error("Failed to record message on conversation")
		return err
	}
	return nil
}

// ResetUnread zeroes the caller's unread counter and stamps their read marker
func (r *ConversationRepository) ResetUnread(ctx context.Context, id, accountID primitive.ObjectID) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"unread_count." + accountID.Hex(): 0,
			"last_read." + accountID.Hex():    now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", id.Hex()).Error("Failed to reset unread counter")
		return err
	}
	return nil
}

// DecrementUnread drops one party's unread counter by one and stamps their
// last read time, for a single message being marked read.
func (r *ConversationRepository) DecrementUnread(ctx context.Context, id, accountID primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"unread_count." + accountID.Hex(): -1},
		"$set": bson.M{
			"last_read." + accountID.Hex(): time.Now(),
			"updated_at":                   time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", id.Hex()).Error("Failed to decrement unread counter")
		return err
	}
	return nil
}

// DeleteConversation hard deletes a conversation document
func (r *ConversationRepository) DeleteConversation(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", id.Hex()).Error("Failed to delete conversation")
		return err
	}

	logger.Log.WithField("conversation_id", id.Hex()).Info("Conversation deleted")
	return nil
}
