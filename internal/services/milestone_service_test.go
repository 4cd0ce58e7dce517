package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
)

func TestPointsForNextLevel(t *testing.T) {
	assert.Equal(t, 100, PointsForNextLevel(1))
	assert.Equal(t, 282, PointsForNextLevel(2))
	assert.Equal(t, 519, PointsForNextLevel(3))
}

func TestLevelFromPoints(t *testing.T) {
	tests := []struct {
		points int
		level  int
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{150, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFromPoints(tt.points), "points=%d", tt.points)
	}
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 0.0, progressPercentage(5, 0))
	assert.Equal(t, 50.0, progressPercentage(5, 10))
	assert.Equal(t, 100.0, progressPercentage(10, 10))

	// Progress can overshoot the target before the unlock flag lands.
	assert.Equal(t, 100.0, progressPercentage(12, 10))
}

func rankedAccount(name string, level, points int) models.Account {
	return models.Account{
		ID:               primitive.NewObjectID(),
		DisplayName:      name,
		Level:            level,
		ExperiencePoints: points,
	}
}

func TestRankAccounts(t *testing.T) {
	accounts := []models.Account{
		rankedAccount("first", 5, 3000),
		rankedAccount("second", 5, 2500),
		rankedAccount("third", 4, 1800),
		rankedAccount("fourth", 2, 400),
		rankedAccount("fifth", 1, 50),
	}

	page1 := RankAccounts(accounts, 1, 2)
	assert.Len(t, page1, 2)
	assert.Equal(t, "first", page1[0].DisplayName)
	assert.Equal(t, 1, page1[0].Position)
	assert.Equal(t, 2, page1[1].Position)

	// Positions are absolute, not page-relative.
	page2 := RankAccounts(accounts, 2, 2)
	assert.Len(t, page2, 2)
	assert.Equal(t, "third", page2[0].DisplayName)
	assert.Equal(t, 3, page2[0].Position)
	assert.Equal(t, 4, page2[1].Position)

	page3 := RankAccounts(accounts, 3, 2)
	assert.Len(t, page3, 1)
	assert.Equal(t, 5, page3[0].Position)

	assert.Empty(t, RankAccounts(accounts, 4, 2))
	assert.Empty(t, RankAccounts(nil, 1, 20))
}

func newMilestoneFixture(account *models.Account) (*MilestoneService, *fakeMilestoneStore, *fakeAccountStore, *fakeNotificationStore) {
	milestones := newFakeMilestoneStore()
	accounts := newFakeAccountStore(account)
	notifications := &fakeNotificationStore{}
	service := NewMilestoneService(milestones, accounts, NewNotificationService(notifications, accounts))
	return service, milestones, accounts, notifications
}

func activeChallenge(points, target int) *models.Challenge {
	return &models.Challenge{
		ID:           primitive.NewObjectID(),
		Title:        "Spring Streak",
		Category:     "consistency",
		Requirements: models.Requirements{TargetValue: target},
		Points:       points,
		StartDate:    time.Now().Add(-24 * time.Hour),
		EndDate:      time.Now().Add(24 * time.Hour),
	}
}

func TestRecordActionUnlockWritesActivity(t *testing.T) {
	account := &models.Account{ID: primitive.NewObjectID(), DisplayName: "Dana", Level: 1}
	service, milestones, accounts, _ := newMilestoneFixture(account)
	milestones.achievements = []models.Achievement{{
		ID:           primitive.NewObjectID(),
		Title:        "First Steps",
		Requirements: models.Requirements{ActionType: "workout", TargetValue: 2},
		Points:       50,
	}}
	ctx := context.Background()

	require.NoError(t, service.RecordAction(ctx, account.ID, "workout", nil))
	require.NoError(t, service.RecordAction(ctx, account.ID, "workout", nil))

	assert.Equal(t, []string{"workout", "workout", "achievement_unlocked"}, milestones.activityTypes(account.ID))

	unlock := milestones.activities[2]
	assert.Equal(t, "Unlocked the First Steps achievement", unlock.Message)
	assert.Equal(t, milestones.achievements[0].ID.Hex(), unlock.TargetID)
	assert.Equal(t, "achievement", unlock.TargetType)
	assert.Equal(t, 50, unlock.Data["points_earned"])

	assert.Equal(t, "Logged a workout", milestones.activities[0].Message)
	assert.Equal(t, 50, accounts.accounts[account.ID].ExperiencePoints)
	assert.Equal(t, 1, accounts.accounts[account.ID].AchievementCount)
}

func TestRecordActionReplayAfterUnlock(t *testing.T) {
	account := &models.Account{ID: primitive.NewObjectID(), DisplayName: "Dana", Level: 1}
	service, milestones, accounts, _ := newMilestoneFixture(account)
	milestones.achievements = []models.Achievement{{
		ID:           primitive.NewObjectID(),
		Title:        "First Steps",
		Requirements: models.Requirements{ActionType: "workout", TargetValue: 1},
		Points:       30,
	}}
	ctx := context.Background()

	require.NoError(t, service.RecordAction(ctx, account.ID, "workout", nil))
	require.NoError(t, service.RecordAction(ctx, account.ID, "workout", nil))

	assert.Equal(t, 30, accounts.accounts[account.ID].ExperiencePoints)
	assert.Equal(t, 1, accounts.accounts[account.ID].AchievementCount)
	assert.Equal(t, 1, milestones.upsertCalls)
}

func TestGrantPointsLevelUpWritesActivity(t *testing.T) {
	account := &models.Account{ID: primitive.NewObjectID(), DisplayName: "Dana", Level: 1, ExperiencePoints: 90}
	service, milestones, accounts, notifications := newMilestoneFixture(account)
	milestones.achievements = []models.Achievement{{
		ID:           primitive.NewObjectID(),
		Title:        "Quick Start",
		Requirements: models.Requirements{ActionType: "workout", TargetValue: 1},
		Points:       20,
	}}
	ctx := context.Background()

	require.NoError(t, service.RecordAction(ctx, account.ID, "workout", nil))

	assert.Equal(t, []string{"workout", "achievement_unlocked", "level_up"}, milestones.activityTypes(account.ID))

	levelUp := milestones.activities[2]
	assert.Equal(t, "Reached level 2", levelUp.Message)
	assert.Equal(t, 2, levelUp.Data["new_level"])
	assert.Equal(t, 1, levelUp.Data["old_level"])

	assert.Equal(t, 2, accounts.accounts[account.ID].Level)
	assert.Contains(t, notifications.typesFor(account.ID), "level_up")
}

func TestJoinChallengeIdempotent(t *testing.T) {
	account := &models.Account{ID: primitive.NewObjectID(), DisplayName: "Dana", Level: 1}
	service, milestones, _, _ := newMilestoneFixture(account)
	challenge := activeChallenge(100, 10)
	milestones.challenges[challenge.ID] = challenge
	ctx := context.Background()

	first, err := service.JoinChallenge(ctx, challenge.ID, account.ID)
	require.NoError(t, err)
	second, err := service.JoinChallenge(ctx, challenge.ID, account.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, milestones.joinCalls)
	assert.Equal(t, 1, challenge.ParticipantCount)

	joined := 0
	for _, typ := range milestones.activityTypes(account.ID) {
		if typ == "challenge_joined" {
			joined++
		}
	}
	assert.Equal(t, 1, joined)
}

func TestUpdateChallengeProgressOneWayCompletion(t *testing.T) {
	account := &models.Account{ID: primitive.NewObjectID(), DisplayName: "Dana", Level: 1}
	service, milestones, accounts, notifications := newMilestoneFixture(account)
	challenge := activeChallenge(100, 30)
	milestones.challenges[challenge.ID] = challenge
	ctx := context.Background()

	_, err := service.JoinChallenge(ctx, challenge.ID, account.ID)
	require.NoError(t, err)

	row, err := service.UpdateChallengeProgress(ctx, challenge.ID, account.ID, 30, "")
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeCompleted, row.Status)
	require.NotNil(t, row.CompletedAt)
	assert.Equal(t, 1, accounts.grantCalls)
	assert.Equal(t, 100, accounts.accounts[account.ID].ExperiencePoints)
	assert.Contains(t, notifications.typesFor(account.ID), "challenge_completed")

	// A later lower report changes nothing and grants nothing.
	writesBefore := milestones.updateRowCalls
	again, err := service.UpdateChallengeProgress(ctx, challenge.ID, account.ID, 5, "")
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeCompleted, again.Status)
	assert.Equal(t, 30, again.Progress)
	assert.Equal(t, writesBefore, milestones.updateRowCalls)
	assert.Equal(t, 1, accounts.grantCalls)
}

func TestUpdateChallengeProgressOutsideWindow(t *testing.T) {
	account := &models.Account{ID: primitive.NewObjectID(), DisplayName: "Dana", Level: 1}
	service, milestones, _, _ := newMilestoneFixture(account)
	challenge := activeChallenge(100, 30)
	challenge.StartDate = time.Now().Add(24 * time.Hour)
	challenge.EndDate = time.Now().Add(48 * time.Hour)
	milestones.challenges[challenge.ID] = challenge

	_, err := service.UpdateChallengeProgress(context.Background(), challenge.ID, account.ID, 5, "")
	require.Error(t, err)
	assert.Zero(t, milestones.updateRowCalls)
}
