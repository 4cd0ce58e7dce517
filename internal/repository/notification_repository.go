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

// NotificationRepository handles database operations related to notifications
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new instance of NotificationRepository
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// CreateNotification inserts a new notification
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	notification.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, notification)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert notification")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	notification.ID = insertedID

	return notification, nil
}

// GetNotificationByID fetches a notification by its ID
func (r *NotificationRepository) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification)
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to find notification")
		return nil, err
	}

	return &notification, nil
}

// GetNotificationsByAccount fetches an account's notifications, newest first.
// When unreadOnly is set, read notifications are skipped.
func (r *NotificationRepository) GetNotificationsByAccount(ctx context.Context, accountID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	var notifications []models.Notification

	filter := bson.M{"account_id": accountID}
	if unreadOnly {
		filter["is_read"] = false
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch notifications")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var notification models.Notification
		if err := cursor.Decode(&notification); err != nil {
			logger.Log.WithError(err).Error("Failed to decode notification")
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	return notifications, nil
}

// CountUnread counts an account's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"account_id": accountID,
		"is_read":    false,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to count unread notifications")
		return 0, err
	}
	return count, nil
}

// MarkRead flips the read flag on one notification
func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, read bool) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_read": read}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to mark notification")
		return err
	}
	return nil
}

// MarkAllRead flips the read flag on every unread notification of an account
func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"account_id": accountID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to mark all notifications read")
		return 0, err
	}

	return result.ModifiedCount, nil
}

// DeleteNotification removes a single notification
func (r *NotificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to delete notification")
		return err
	}
	return nil
}

// DeleteAllByAccount removes every notification of an account
func (r *NotificationRepository) DeleteAllByAccount(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"account_id": accountID})
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to delete notifications")
		return 0, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"account_id": accountID.Hex(),
		"deleted":    result.DeletedCount,
	}).Info("Notifications cleared")
	return result.DeletedCount, nil
}
