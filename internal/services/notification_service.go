package services

import (
	"context"
	"fmt"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService handles business logic for notifications.
type NotificationService struct {
	notificationRepo notificationStore
	accountRepo      accountStore
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo notificationStore, accountRepo accountStore) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		accountRepo:      accountRepo,
	}
}

// NotificationList is the list response with unread bookkeeping.
type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

// Notify creates a notification for an account. Source name and photo are
// snapshotted when a source account is given. Delivery is best effort and
// never fails the calling operation.
func (s *NotificationService) Notify(ctx context.Context, accountID primitive.ObjectID, sourceID *primitive.ObjectID, notifType, message string, data map[string]interface{}) {
	notification := &models.Notification{
		AccountID: accountID,
		Type:      notifType,
		Message:   message,
		Data:      data,
	}

	if sourceID != nil {
		if source, err := s.accountRepo.GetAccountByID(ctx, *sourceID); err == nil {
			notification.SourceAccountID = sourceID
			notification.SourceName = source.DisplayName
			notification.SourcePhoto = source.PhotoURL
		}
	}

	if _, err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		logger.Log.WithError(err).WithField("type", notifType).Warn("Failed to create notification")
	}
}

// GetNotifications returns a page of the account's notifications with the
// current unread total.
func (s *NotificationService) GetNotifications(ctx context.Context, accountID primitive.ObjectID, unreadOnly bool, limit int64) (*NotificationList, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	notifications, err := s.notificationRepo.GetNotificationsByAccount(ctx, accountID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// GetUnreadCount returns the account's unread total.
func (s *NotificationService) GetUnreadCount(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, accountID)
}

// GetNotification fetches one notification, enforcing ownership.
func (s *NotificationService) GetNotification(ctx context.Context, id, accountID primitive.ObjectID) (*models.Notification, error) {
	notification, err := s.notificationRepo.GetNotificationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification.AccountID != accountID {
		return nil, fmt.Errorf("notification does not belong to this account")
	}
	return notification, nil
}

// MarkRead flips one notification's read flag, enforcing ownership.
func (s *NotificationService) MarkRead(ctx context.Context, id, accountID primitive.ObjectID, read bool) error {
	if _, err := s.GetNotification(ctx, id, accountID); err != nil {
		return err
	}
	return s.notificationRepo.MarkRead(ctx, id, read)
}

// MarkAllRead marks every unread notification of the account as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, accountID)
}

// DeleteNotification removes one notification, enforcing ownership.
func (s *NotificationService) DeleteNotification(ctx context.Context, id, accountID primitive.ObjectID) error {
	if _, err := s.GetNotification(ctx, id, accountID); err != nil {
		return err
	}
	return s.notificationRepo.DeleteNotification(ctx, id)
}

// DeleteAll clears every notification of the account.
func (s *NotificationService) DeleteAll(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	return s.notificationRepo.DeleteAllByAccount(ctx, accountID)
}
