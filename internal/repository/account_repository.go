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

// AccountRepository handles database operations on the accounts collection.
// Regular users, trainers and gym admins all live in the same collection and
// are distinguished by the role field.
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a new instance of AccountRepository
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection("accounts"),
	}
}

// CreateAccount inserts a new account into the database
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	account.LastActive = time.Now()

	result, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert account")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	account.ID = insertedID

	logger.Log.WithField("account_id", account.ID.Hex()).Info("Account created successfully")
	return account, nil
}

// GetAccountByID fetches an account by its ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var account models.Account

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", id.Hex()).Error("Failed to find account by ID")
		return nil, err
	}

	return &account, nil
}

// GetAccountByEmail fetches an account by its email address
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account

	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetAccountsByIDs fetches several accounts at once
func (r *AccountRepository) GetAccountsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	var accounts []models.Account

	if len(ids) == 0 {
		return accounts, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch accounts by IDs")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			logger.Log.WithError(err).Error("Failed to decode account")
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// UpdateAccount applies a partial update to an account document
func (r *AccountRepository) UpdateAccount(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", id.Hex()).Error("Failed to update account")
		return err
	}

	logger.Log.WithField("account_id", id.Hex()).Info("Account updated successfully")
	return nil
}

// SetOnlineStatus flips the online flag and refreshes last_active
func (r *AccountRepository) SetOnlineStatus(ctx context.Context, id primitive.ObjectID, online bool) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_online":   online,
			"last_active": time.Now(),
		}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", id.Hex()).Error("Failed to update online status")
		return err
	}
	return nil
}

// GrantPoints atomically adds experience points and bumps the achievement
// counter when an achievement was unlocked alongside the points.
func (r *AccountRepository) GrantPoints(ctx context.Context, id primitive.ObjectID, points int, achievements int) error {
	update := bson.M{
		"$inc": bson.M{
			"experience_points": points,
			"achievement_count": achievements,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", id.Hex()).Error("Failed to grant points")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"account_id": id.Hex(),
		"points":     points,
	}).Info("Points granted")
	return nil
}

// SetLevel persists a recomputed level
func (r *AccountRepository) SetLevel(ctx context.Context, id primitive.ObjectID, level int) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"level": level, "updated_at": time.Now()}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", id.Hex()).Error("Failed to set level")
		return err
	}
	return nil
}

// GetActiveAccounts fetches accounts active within the given window, most
// recently active first.
func (r *AccountRepository) GetActiveAccounts(ctx context.Context, since time.Time, limit int64) ([]models.Account, error) {
	var accounts []models.Account

	findOptions := options.Find().
		SetSort(bson.D{{Key: "last_active", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"last_active": bson.M{"$gte": since}}, findOptions)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch active accounts")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			logger.Log.WithError(err).Error("Failed to decode account")
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// SearchAccounts fetches accounts whose display name, email or interests
// match the query, optionally restricted to a role.
func (r *AccountRepository) SearchAccounts(ctx context.Context, query, role string, limit int64) ([]models.Account, error) {
	var accounts []models.Account

	filter := bson.M{}
	if query != "" {
		filter["$or"] = []bson.M{
			{"display_name": bson.M{"$regex": query, "$options": "i"}},
			{"email": bson.M{"$regex": query, "$options": "i"}},
			{"interests": bson.M{"$regex": query, "$options": "i"}},
		}
	}
	if role != "" {
		filter["role"] = role
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to search accounts")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			logger.Log.WithError(err).Error("Failed to decode account")
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// GetAccountsByRole fetches every account with the given role
func (r *AccountRepository) GetAccountsByRole(ctx context.Context, role string) ([]models.Account, error) {
	var accounts []models.Account

	cursor, err := r.collection.Find(ctx, bson.M{"role": role})
	if err != nil {
		logger.Log.WithError(err).WithField("role", role).Error("Failed to fetch accounts by role")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			logger.Log.WithError(err).Error("Failed to decode account")
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// GetAccountsByGym fetches accounts attached to a gym, optionally by role
func (r *AccountRepository) GetAccountsByGym(ctx context.Context, gymID primitive.ObjectID, role string) ([]models.Account, error) {
	var accounts []models.Account

	filter := bson.M{"gym_id": gymID}
	if role != "" {
		filter["role"] = role
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("gym_id", gymID.Hex()).Error("Failed to fetch gym accounts")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			logger.Log.WithError(err).Error("Failed to decode account")
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// GetRankedAccounts fetches every account ordered for the leaderboard:
// level first, experience points next, the oldest ID winning remaining ties.
func (r *AccountRepository) GetRankedAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account

	findOptions := options.Find().SetSort(bson.D{
		{Key: "level", Value: -1},
		{Key: "experience_points", Value: -1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch ranked accounts")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			logger.Log.WithError(err).Error("Failed to decode account")
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}
