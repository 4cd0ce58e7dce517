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

// MilestoneRepository handles achievements, challenges, participations and
// the activity log backing the gamification engine.
type MilestoneRepository struct {
	client         *mongo.Client
	achievements   *mongo.Collection
	progress       *mongo.Collection
	challenges     *mongo.Collection
	participations *mongo.Collection
	activities     *mongo.Collection
}

// NewMilestoneRepository creates a new instance of MilestoneRepository.
// The client is kept for multi-document transactions.
func NewMilestoneRepository(db *mongo.Database, client *mongo.Client) *MilestoneRepository {
	return &MilestoneRepository{
		client:         client,
		achievements:   db.Collection("achievements"),
		progress:       db.Collection("achievement_progress"),
		challenges:     db.Collection("challenges"),
		participations: db.Collection("challenge_participations"),
		activities:     db.Collection("milestone_activities"),
	}
}

// GetAchievements fetches every achievement definition
func (r *MilestoneRepository) GetAchievements(ctx context.Context) ([]models.Achievement, error) {
	var achievements []models.Achievement

	cursor, err := r.achievements.Find(ctx, bson.M{})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch achievements")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var achievement models.Achievement
		if err := cursor.Decode(&achievement); err != nil {
			logger.Log.WithError(err).Error("Failed to decode achievement")
			return nil, err
		}
		achievements = append(achievements, achievement)
	}

	return achievements, nil
}

// GetAchievementsByAction fetches achievement definitions whose requirement
// matches the given action type.
func (r *MilestoneRepository) GetAchievementsByAction(ctx context.Context, actionType string) ([]models.Achievement, error) {
	var achievements []models.Achievement

	cursor, err := r.achievements.Find(ctx, bson.M{"requirements.action_type": actionType})
	if err != nil {
		logger.Log.WithError(err).WithField("action_type", actionType).Error("Failed to fetch achievements by action")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var achievement models.Achievement
		if err := cursor.Decode(&achievement); err != nil {
			logger.Log.WithError(err).Error("Failed to decode achievement")
			return nil, err
		}
		achievements = append(achievements, achievement)
	}

	return achievements, nil
}

// GetAchievementByID fetches a single achievement definition
func (r *MilestoneRepository) GetAchievementByID(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	var achievement models.Achievement

	err := r.achievements.FindOne(ctx, bson.M{"_id": id}).Decode(&achievement)
	if err != nil {
		return nil, err
	}

	return &achievement, nil
}

// GetProgress fetches a single progress row by its deterministic ID
func (r *MilestoneRepository) GetProgress(ctx context.Context, id string) (*models.AchievementProgress, error) {
	var progress models.AchievementProgress

	err := r.progress.FindOne(ctx, bson.M{"_id": id}).Decode(&progress)
	if err != nil {
		return nil, err
	}

	return &progress, nil
}

// GetProgressByAccount fetches every progress row for an account
func (r *MilestoneRepository) GetProgressByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.AchievementProgress, error) {
	var rows []models.AchievementProgress

	cursor, err := r.progress.Find(ctx, bson.M{"account_id": accountID})
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch achievement progress")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row models.AchievementProgress
		if err := cursor.Decode(&row); err != nil {
			logger.Log.WithError(err).Error("Failed to decode achievement progress")
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// UpsertProgress writes a progress row under its deterministic ID
func (r *MilestoneRepository) UpsertProgress(ctx context.Context, row *models.AchievementProgress) error {
	_, err := r.progress.UpdateOne(
		ctx,
		bson.M{"_id": row.ID},
		bson.M{"$set": row},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		logger.Log.WithError(err).WithField("progress_id", row.ID).Error("Failed to upsert achievement progress")
		return err
	}
	return nil
}

// GetChallenges fetches every challenge definition, newest start date first
func (r *MilestoneRepository) GetChallenges(ctx context.Context) ([]models.Challenge, error) {
	var challenges []models.Challenge

	findOptions := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}})
	cursor, err := r.challenges.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch challenges")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var challenge models.Challenge
		if err := cursor.Decode(&challenge); err != nil {
			logger.Log.WithError(err).Error("Failed to decode challenge")
			return nil, err
		}
		challenges = append(challenges, challenge)
	}

	return challenges, nil
}

// GetChallengeByID fetches a single challenge definition
func (r *MilestoneRepository) GetChallengeByID(ctx context.Context, id primitive.ObjectID) (*models.Challenge, error) {
	var challenge models.Challenge

	err := r.challenges.FindOne(ctx, bson.M{"_id": id}).Decode(&challenge)
	if err != nil {
		return nil, err
	}

	return &challenge, nil
}

// GetChallengesEndingBefore fetches challenges whose end date falls between
// now and the given deadline. Used by the deadline notifier job.
func (r *MilestoneRepository) GetChallengesEndingBefore(ctx context.Context, deadline time.Time) ([]models.Challenge, error) {
	var challenges []models.Challenge

	filter := bson.M{"end_date": bson.M{"$gte": time.Now(), "$lte": deadline}}
	cursor, err := r.challenges.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch ending challenges")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var challenge models.Challenge
		if err := cursor.Decode(&challenge); err != nil {
			logger.Log.WithError(err).Error("Failed to decode challenge")
			return nil, err
		}
		challenges = append(challenges, challenge)
	}

	return challenges, nil
}

// GetParticipation fetches a participation row by its deterministic ID
func (r *MilestoneRepository) GetParticipation(ctx context.Context, id string) (*models.ChallengeParticipation, error) {
	var participation models.ChallengeParticipation

	err := r.participations.FindOne(ctx, bson.M{"_id": id}).Decode(&participation)
	if err != nil {
		return nil, err
	}

	return &participation, nil
}

// GetParticipationsByAccount fetches every challenge an account has joined
func (r *MilestoneRepository) GetParticipationsByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.ChallengeParticipation, error) {
	var rows []models.ChallengeParticipation

	cursor, err := r.participations.Find(ctx, bson.M{"account_id": accountID})
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch participations")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row models.ChallengeParticipation
		if err := cursor.Decode(&row); err != nil {
			logger.Log.WithError(err).Error("Failed to decode participation")
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// GetParticipantsByChallenge fetches every participant of a challenge,
// highest progress first.
func (r *MilestoneRepository) GetParticipantsByChallenge(ctx context.Context, challengeID primitive.ObjectID) ([]models.ChallengeParticipation, error) {
	var rows []models.ChallengeParticipation

	findOptions := options.Find().SetSort(bson.D{{Key: "progress", Value: -1}})
	cursor, err := r.participations.Find(ctx, bson.M{"challenge_id": challengeID}, findOptions)
	if err != nil {
		logger.Log.WithError(err).WithField("challenge_id", challengeID.Hex()).Error("Failed to fetch participants")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row models.ChallengeParticipation
		if err := cursor.Decode(&row); err != nil {
			logger.Log.WithError(err).Error("Failed to decode participation")
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// JoinChallenge inserts the participation row and increments the challenge
// participant counter in a single transaction.
func (r *MilestoneRepository) JoinChallenge(ctx context.Context, participation *models.ChallengeParticipation) error {
	session, err := r.client.StartSession()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to start session for challenge join")
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.participations.InsertOne(sc, participation); err != nil {
			return nil, err
		}
		_, err := r.challenges.UpdateOne(
			sc,
			bson.M{"_id": participation.ChallengeID},
			bson.M{"$inc": bson.M{"participant_count": 1}},
		)
		return nil, err
	})
	if err != nil {
		logger.Log.WithError(err).WithField("participation_id", participation.ID).Error("Failed to join challenge")
		return err
	}

	logger.Log.WithField("participation_id", participation.ID).Info("Challenge joined")
	return nil
}

// UpdateParticipation applies a partial update to a participation row
func (r *MilestoneRepository) UpdateParticipation(ctx context.Context, id string, update bson.M) error {
	update["last_updated"] = time.Now()

	_, err := r.participations.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("participation_id", id).Error("Failed to update participation")
		return err
	}
	return nil
}

// RecordActivity appends a row to the milestone activity log
func (r *MilestoneRepository) RecordActivity(ctx context.Context, activity *models.MilestoneActivity) error {
	activity.CreatedAt = time.Now()

	result, err := r.activities.InsertOne(ctx, activity)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to record milestone activity")
		return err
	}

	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		activity.ID = insertedID
	}
	return nil
}

// GetActivitiesByAccount fetches an account's activity log, newest first
func (r *MilestoneRepository) GetActivitiesByAccount(ctx context.Context, accountID primitive.ObjectID, limit int64) ([]models.MilestoneActivity, error) {
	var activities []models.MilestoneActivity

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.activities.Find(ctx, bson.M{"account_id": accountID}, findOptions)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID.Hex()).Error("Failed to fetch activities")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var activity models.MilestoneActivity
		if err := cursor.Decode(&activity); err != nil {
			logger.Log.WithError(err).Error("Failed to decode activity")
			return nil, err
		}
		activities = append(activities, activity)
	}

	return activities, nil
}

// CountActivities counts activity rows of a given type for an account
func (r *MilestoneRepository) CountActivities(ctx context.Context, accountID primitive.ObjectID, actionType string) (int64, error) {
	filter := bson.M{"account_id": accountID}
	if actionType != "" {
		filter["type"] = actionType
	}

	count, err := r.activities.CountDocuments(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to count activities")
		return 0, err
	}
	return count, nil
}
