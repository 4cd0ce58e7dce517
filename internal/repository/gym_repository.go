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

// GymRepository handles gyms, gym membership rows and check-ins
type GymRepository struct {
	gyms     *mongo.Collection
	members  *mongo.Collection
	checkins *mongo.Collection
}

// NewGymRepository creates a new instance of GymRepository
func NewGymRepository(db *mongo.Database) *GymRepository {
	return &GymRepository{
		gyms:     db.Collection("gyms"),
		members:  db.Collection("gym_members"),
		checkins: db.Collection("checkins"),
	}
}

// CreateGym inserts a new gym
func (r *GymRepository) CreateGym(ctx context.Context, gym *models.Gym) (*models.Gym, error) {
	gym.CreatedAt = time.Now()
	gym.UpdatedAt = time.Now()

	result, err := r.gyms.InsertOne(ctx, gym)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert gym")
		return nil, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, err
	}
	gym.ID = insertedID

	logger.Log.WithField("gym_id", gym.ID.Hex()).Info("Gym created")
	return gym, nil
}

// GetGymByID fetches a gym by its ID
func (r *GymRepository) GetGymByID(ctx context.Context, id primitive.ObjectID) (*models.Gym, error) {
	var gym models.Gym

	err := r.gyms.FindOne(ctx, bson.M{"_id": id}).Decode(&gym)
	if err != nil {
		logger.Log.WithError(err).WithField("gym_id", id.Hex()).Error("Failed to find gym")
		return nil, err
	}

	return &gym, nil
}

// GetGymByAdmin fetches the gym managed by the given admin account
func (r *GymRepository) GetGymByAdmin(ctx context.Context, adminID primitive.ObjectID) (*models.Gym, error) {
	var gym models.Gym

	err := r.gyms.FindOne(ctx, bson.M{"admin_id": adminID}).Decode(&gym)
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

// GetGyms fetches gyms, optionally filtered by a name query
func (r *GymRepository) GetGyms(ctx context.Context, query string, limit int64) ([]models.Gym, error) {
	var gyms []models.Gym

	filter := bson.M{}
	if query != "" {
		filter["name"] = bson.M{"$regex": query, "$options": "i"}
	}

	cursor, err := r.gyms.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch gyms")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var gym models.Gym
		if err := cursor.Decode(&gym); err != nil {
			logger.Log.WithError(err).Error("Failed to decode gym")
			return nil, err
		}
		gyms = append(gyms, gym)
	}

	return gyms, nil
}

// UpdateGym applies a partial update to a gym
func (r *GymRepository) UpdateGym(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()

	_, err := r.gyms.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("gym_id", id.Hex()).Error("Failed to update gym")
		return err
	}

	logger.Log.WithField("gym_id", id.Hex()).Info("Gym updated")
	return nil
}

// AdjustCounts bumps the member and trainer counters by the given deltas
func (r *GymRepository) AdjustCounts(ctx context.Context, id primitive.ObjectID, members, trainers int) error {
	_, err := r.gyms.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{
			"member_count":  members,
			"trainer_count": trainers,
		}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("gym_id", id.Hex()).Error("Failed to adjust gym counts")
		return err
	}
	return nil
}

// GetMember fetches a membership row by its deterministic ID
func (r *GymRepository) GetMember(ctx context.Context, id string) (*models.GymMember, error) {
	var member models.GymMember

	err := r.members.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		return nil, err
	}

	return &member, nil
}

// GetMembersByGym fetches every membership row of a gym
func (r *GymRepository) GetMembersByGym(ctx context.Context, gymID primitive.ObjectID) ([]models.GymMember, error) {
	var members []models.GymMember

	cursor, err := r.members.Find(ctx, bson.M{"gym_id": gymID})
	if err != nil {
		logger.Log.WithError(err).WithField("gym_id", gymID.Hex()).Error("Failed to fetch gym members")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var member models.GymMember
		if err := cursor.Decode(&member); err != nil {
			logger.Log.WithError(err).Error("Failed to decode gym member")
			return nil, err
		}
		members = append(members, member)
	}

	return members, nil
}

// CreateMember inserts a membership row
func (r *GymRepository) CreateMember(ctx context.Context, member *models.GymMember) error {
	member.JoinDate = time.Now()
	member.CreatedAt = time.Now()
	member.UpdatedAt = time.Now()

	_, err := r.members.InsertOne(ctx, member)
	if err != nil {
		logger.Log.WithError(err).WithField("member_id", member.ID).Error("Failed to insert gym member")
		return err
	}

	logger.Log.WithField("member_id", member.ID).Info("Gym member added")
	return nil
}

// UpdateMember applies a partial update to a membership row
func (r *GymRepository) UpdateMember(ctx context.Context, id string, update bson.M) error {
	_, err := r.members.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("member_id", id).Error("Failed to update gym member")
		return err
	}
	return nil
}

// DeleteMember removes a membership row
func (r *GymRepository) DeleteMember(ctx context.Context, id string) (bool, error) {
	result, err := r.members.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("member_id", id).Error("Failed to delete gym member")
		return false, err
	}

	return result.DeletedCount > 0, nil
}

// CreateCheckin inserts a check-in row and bumps the member's counter
func (r *GymRepository) CreateCheckin(ctx context.Context, checkin *models.Checkin) error {
	checkin.CreatedAt = time.Now()

	if _, err := r.checkins.InsertOne(ctx, checkin); err != nil {
		logger.Log.WithError(err).Error("Failed to insert checkin")
		return err
	}

	memberID := checkin.GymID.Hex() + "_" + checkin.AccountID.Hex()
	_, err := r.members.UpdateOne(
		ctx,
		bson.M{"_id": memberID},
		bson.M{
			"$inc": bson.M{"checkin_count": 1},
			"$set": bson.M{"last_checkin": checkin.CreatedAt},
		},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("member_id", memberID).Error("Failed to bump checkin counter")
		return err
	}

	return nil
}

// GetCheckinsByGym fetches a gym's check-ins since the given time
func (r *GymRepository) GetCheckinsByGym(ctx context.Context, gymID primitive.ObjectID, since time.Time) ([]models.Checkin, error) {
	var checkins []models.Checkin

	filter := bson.M{"gym_id": gymID}
	if !since.IsZero() {
		filter["created_at"] = bson.M{"$gte": since}
	}

	cursor, err := r.checkins.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("gym_id", gymID.Hex()).Error("Failed to fetch checkins")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var checkin models.Checkin
		if err := cursor.Decode(&checkin); err != nil {
			logger.Log.WithError(err).Error("Failed to decode checkin")
			return nil, err
		}
		checkins = append(checkins, checkin)
	}

	return checkins, nil
}
