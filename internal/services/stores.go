package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
)

// Store interfaces narrow each repository to the methods the services call.
// The mongo-backed repositories satisfy them; tests substitute in-memory
// fakes.

type accountStore interface {
	GetAccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	GetAccountsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error)
	SearchAccounts(ctx context.Context, query, role string, limit int64) ([]models.Account, error)
	GrantPoints(ctx context.Context, id primitive.ObjectID, points int, achievements int) error
	SetLevel(ctx context.Context, id primitive.ObjectID, level int) error
	GetRankedAccounts(ctx context.Context) ([]models.Account, error)
}

type milestoneStore interface {
	GetAchievements(ctx context.Context) ([]models.Achievement, error)
	GetAchievementsByAction(ctx context.Context, actionType string) ([]models.Achievement, error)
	GetProgress(ctx context.Context, id string) (*models.AchievementProgress, error)
	GetProgressByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.AchievementProgress, error)
	UpsertProgress(ctx context.Context, row *models.AchievementProgress) error
	GetChallenges(ctx context.Context) ([]models.Challenge, error)
	GetChallengeByID(ctx context.Context, id primitive.ObjectID) (*models.Challenge, error)
	GetParticipation(ctx context.Context, id string) (*models.ChallengeParticipation, error)
	GetParticipationsByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.ChallengeParticipation, error)
	GetParticipantsByChallenge(ctx context.Context, challengeID primitive.ObjectID) ([]models.ChallengeParticipation, error)
	JoinChallenge(ctx context.Context, participation *models.ChallengeParticipation) error
	UpdateParticipation(ctx context.Context, id string, update bson.M) error
	RecordActivity(ctx context.Context, activity *models.MilestoneActivity) error
	GetActivitiesByAccount(ctx context.Context, accountID primitive.ObjectID, limit int64) ([]models.MilestoneActivity, error)
}

type conversationStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	GetConversationsByParticipant(ctx context.Context, accountID primitive.ObjectID) ([]models.Conversation, error)
	FindDirectConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error)
	UpdateConversation(ctx context.Context, id primitive.ObjectID, update bson.M) error
	RecordMessage(ctx context.Context, id primitive.ObjectID, preview string, senderID, recipientID primitive.ObjectID, sentAt time.Time) error
	ResetUnread(ctx context.Context, id, accountID primitive.ObjectID) error
	DecrementUnread(ctx context.Context, id, accountID primitive.ObjectID) error
	DeleteConversation(ctx context.Context, id primitive.ObjectID) error
}

type messageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	GetMessages(ctx context.Context, conversationID primitive.ObjectID, limit int64, before time.Time) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, ids []primitive.ObjectID) error
	UpdateMessage(ctx context.Context, id primitive.ObjectID, update bson.M) error
	DeleteMessagesByConversation(ctx context.Context, conversationID primitive.ObjectID) error
}

type connectionStore interface {
	CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	GetConnectionByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error)
	FindConnectionBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Connection, error)
	GetConnectionsByAccount(ctx context.Context, accountID primitive.ObjectID, status string) ([]models.Connection, error)
	GetPendingRequests(ctx context.Context, accountID primitive.ObjectID) ([]models.Connection, error)
	UpdateConnectionStatus(ctx context.Context, id primitive.ObjectID, status string) error
	DeleteConnection(ctx context.Context, id primitive.ObjectID) error
}

type notificationStore interface {
	CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	GetNotificationsByAccount(ctx context.Context, accountID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, accountID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, read bool) error
	MarkAllRead(ctx context.Context, accountID primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
	DeleteAllByAccount(ctx context.Context, accountID primitive.ObjectID) (int64, error)
}
