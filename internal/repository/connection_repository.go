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

// ConnectionRepository handles database operations on the social graph
type ConnectionRepository struct {
	collection *mongo.Collection
}

// NewConnectionRepository creates a new instance of ConnectionRepository
func NewConnectionRepository(db *mongo.Database) *ConnectionRepository {
	return &ConnectionRepository{
		collection: db.Collection("connections"),
	}
}

// CreateConnection inserts a new connection request
func (r *ConnectionRepository) CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.CreatedAt = time.Now()
	conn.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, conn)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert connection")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	conn.ID = insertedID

	logger.Log.WithField("connection_id", conn.ID.Hex()).Info("Connection request created")
	return conn, nil
}

// GetConnectionByID fetches a connection by its ID
func (r *ConnectionRepository) GetConnectionByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error) {
	var conn models.Connection

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conn)
	if err != nil {
		logger.Log.WithError(err).WithField("connection_id", id.Hex()).Error("Failed to find connection")
		return nil, err
	}

	return &conn, nil
}

// FindConnectionBetween fetches the connection holding the given pair in
// either direction, if one exists.
func (r *ConnectionRepository) FindConnectionBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Connection, error) {
	var conn models.Connection

	filter := bson.M{"participant_ids": bson.M{"$all": []primitive.ObjectID{a, b}}}
	err := r.collection.FindOne(ctx, filter).Decode(&conn)
	if err != nil {
		return nil, err
	}

	return &conn, nil
}

// GetConnectionsByAccount fetches an account's connections, optionally
// restricted to a status.
func (r *ConnectionRepository) GetConnectionsByAccount(ctx context.Context, accountID primitive.ObjectID, status string) ([]models.Connection, error) {
	var connections []models.Connection

	filter := bson.M{"participant_ids": accountID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch connections")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var conn models.Connection
		if err := cursor.Decode(&conn); err != nil {
			logger.Log.WithError(err).Error("Failed to decode connection")
			return nil, err
		}
		connections = append(connections, conn)
	}

	return connections, nil
}

// GetPendingRequests fetches pending requests where the account is the recipient
func (r *ConnectionRepository) GetPendingRequests(ctx context.Context, accountID primitive.ObjectID) ([]models.Connection, error) {
	var connections []models.Connection

	filter := bson.M{
		"recipient_id": accountID,
		"status":       models.ConnectionPending,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch pending requests")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var conn models.Connection
		if err := cursor.Decode(&conn); err != nil {
			logger.Log.WithError(err).Error("Failed to decode connection")
			return nil, err
		}
		connections = append(connections, conn)
	}

	return connections, nil
}

// UpdateConnectionStatus moves a connection to a new status
func (r *ConnectionRepository) UpdateConnectionStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("connection_id", id.Hex()).Error("Failed to update connection status")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"connection_id": id.Hex(),
		"status":        status,
	}).Info("Connection status updated")
	return nil
}

// DeleteConnection removes a connection
func (r *ConnectionRepository) DeleteConnection(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("connection_id", id.Hex()).Error("Failed to delete connection")
		return err
	}

	logger.Log.WithField("connection_id", id.Hex()).Info("Connection deleted")
	return nil
}
