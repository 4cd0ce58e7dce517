package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	m.Run()
}

// In-memory store fakes backing the service tests. Each one keeps the same
// contract as its mongo-backed repository, including which calls mutate what.

type fakeAccountStore struct {
	accounts      map[primitive.ObjectID]*models.Account
	ranked        []models.Account
	grantCalls    int
	setLevelCalls int
}

func newFakeAccountStore(accounts ...*models.Account) *fakeAccountStore {
	f := &fakeAccountStore{accounts: map[primitive.ObjectID]*models.Account{}}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeAccountStore) GetAccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account not found")
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAccountStore) GetAccountsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	var out []models.Account
	for _, id := range ids {
		if a, ok := f.accounts[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) SearchAccounts(ctx context.Context, query, role string, limit int64) ([]models.Account, error) {
	return nil, nil
}

func (f *fakeAccountStore) GrantPoints(ctx context.Context, id primitive.ObjectID, points, achievements int) error {
	a, ok := f.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	f.grantCalls++
	a.ExperiencePoints += points
	a.AchievementCount += achievements
	return nil
}

func (f *fakeAccountStore) SetLevel(ctx context.Context, id primitive.ObjectID, level int) error {
	a, ok := f.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	f.setLevelCalls++
	a.Level = level
	return nil
}

func (f *fakeAccountStore) GetRankedAccounts(ctx context.Context) ([]models.Account, error) {
	return f.ranked, nil
}

type fakeMilestoneStore struct {
	achievements   []models.Achievement
	progress       map[string]*models.AchievementProgress
	challenges     map[primitive.ObjectID]*models.Challenge
	participations map[string]*models.ChallengeParticipation
	activities     []models.MilestoneActivity

	joinCalls      int
	updateRowCalls int
	upsertCalls    int
}

func newFakeMilestoneStore() *fakeMilestoneStore {
	return &fakeMilestoneStore{
		progress:       map[string]*models.AchievementProgress{},
		challenges:     map[primitive.ObjectID]*models.Challenge{},
		participations: map[string]*models.ChallengeParticipation{},
	}
}

func (f *fakeMilestoneStore) GetAchievements(ctx context.Context) ([]models.Achievement, error) {
	return f.achievements, nil
}

func (f *fakeMilestoneStore) GetAchievementsByAction(ctx context.Context, actionType string) ([]models.Achievement, error) {
	var out []models.Achievement
	for _, a := range f.achievements {
		if a.Requirements.ActionType == actionType {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeMilestoneStore) GetProgress(ctx context.Context, id string) (*models.AchievementProgress, error) {
	row, ok := f.progress[id]
	if !ok {
		return nil, fmt.Errorf("progress not found")
	}
	copied := *row
	return &copied, nil
}

func (f *fakeMilestoneStore) GetProgressByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.AchievementProgress, error) {
	var out []models.AchievementProgress
	for _, row := range f.progress {
		if row.AccountID == accountID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeMilestoneStore) UpsertProgress(ctx context.Context, row *models.AchievementProgress) error {
	f.upsertCalls++
	copied := *row
	f.progress[row.ID] = &copied
	return nil
}

func (f *fakeMilestoneStore) GetChallenges(ctx context.Context) ([]models.Challenge, error) {
	var out []models.Challenge
	for _, c := range f.challenges {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeMilestoneStore) GetChallengeByID(ctx context.Context, id primitive.ObjectID) (*models.Challenge, error) {
	c, ok := f.challenges[id]
	if !ok {
		return nil, fmt.Errorf("challenge not found")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeMilestoneStore) GetParticipation(ctx context.Context, id string) (*models.ChallengeParticipation, error) {
	row, ok := f.participations[id]
	if !ok {
		return nil, fmt.Errorf("participation not found")
	}
	copied := *row
	return &copied, nil
}

func (f *fakeMilestoneStore) GetParticipationsByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.ChallengeParticipation, error) {
	var out []models.ChallengeParticipation
	for _, row := range f.participations {
		if row.AccountID == accountID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeMilestoneStore) GetParticipantsByChallenge(ctx context.Context, challengeID primitive.ObjectID) ([]models.ChallengeParticipation, error) {
	var out []models.ChallengeParticipation
	for _, row := range f.participations {
		if row.ChallengeID == challengeID {
			out = append(out, *row)
		}
	}
	return out, nil
}

// JoinChallenge mirrors the repository's transaction: the participation row
// and the challenge participant count move together.
func (f *fakeMilestoneStore) JoinChallenge(ctx context.Context, participation *models.ChallengeParticipation) error {
	if _, ok := f.participations[participation.ID]; ok {
		return fmt.Errorf("already participating")
	}
	f.joinCalls++
	copied := *participation
	f.participations[participation.ID] = &copied
	if c, ok := f.challenges[participation.ChallengeID]; ok {
		c.ParticipantCount++
	}
	return nil
}

func (f *fakeMilestoneStore) UpdateParticipation(ctx context.Context, id string, update bson.M) error {
	row, ok := f.participations[id]
	if !ok {
		return fmt.Errorf("participation not found")
	}
	f.updateRowCalls++
	if v, ok := update["progress"]; ok {
		row.Progress = v.(int)
	}
	if v, ok := update["status"]; ok {
		row.Status = v.(string)
	}
	if v, ok := update["notes"]; ok {
		row.Notes = v.(string)
	}
	if v, ok := update["completed_at"]; ok {
		at := v.(time.Time)
		row.CompletedAt = &at
	}
	return nil
}

func (f *fakeMilestoneStore) RecordActivity(ctx context.Context, activity *models.MilestoneActivity) error {
	f.activities = append(f.activities, *activity)
	return nil
}

func (f *fakeMilestoneStore) GetActivitiesByAccount(ctx context.Context, accountID primitive.ObjectID, limit int64) ([]models.MilestoneActivity, error) {
	var out []models.MilestoneActivity
	for _, a := range f.activities {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// activityTypes lists the recorded activity types for an account in order.
func (f *fakeMilestoneStore) activityTypes(accountID primitive.ObjectID) []string {
	var out []string
	for _, a := range f.activities {
		if a.AccountID == accountID {
			out = append(out, a.Type)
		}
	}
	return out
}

type fakeConversationStore struct {
	conversations map[primitive.ObjectID]*models.Conversation

	resetUnreadFor     []primitive.ObjectID
	decrementUnreadFor []primitive.ObjectID
	deleteCalls        int
}

func newFakeConversationStore(conversations ...*models.Conversation) *fakeConversationStore {
	f := &fakeConversationStore{conversations: map[primitive.ObjectID]*models.Conversation{}}
	for _, c := range conversations {
		f.conversations[c.ID] = c
	}
	return f
}

func (f *fakeConversationStore) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	conv.ID = primitive.NewObjectID()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	f.conversations[conv.ID] = conv
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationStore) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation not found")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeConversationStore) GetConversationsByParticipant(ctx context.Context, accountID primitive.ObjectID) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.conversations {
		if c.HasParticipant(accountID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationStore) FindDirectConversation(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	for _, c := range f.conversations {
		if c.HasParticipant(a) && c.HasParticipant(b) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("conversation not found")
}

func (f *fakeConversationStore) UpdateConversation(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	c, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation not found")
	}
	for k, v := range update {
		switch {
		case strings.HasPrefix(k, "is_archived."):
			c.IsArchived[strings.TrimPrefix(k, "is_archived.")] = v.(bool)
		case strings.HasPrefix(k, "is_pinned."):
			c.IsPinned[strings.TrimPrefix(k, "is_pinned.")] = v.(bool)
		}
	}
	return nil
}

func (f *fakeConversationStore) RecordMessage(ctx context.Context, id primitive.ObjectID, preview string, senderID, recipientID primitive.ObjectID, sentAt time.Time) error {
	c, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation not found")
	}
	c.LastMessage = preview
	c.LastMessageTime = &sentAt
	c.LastMessageSenderID = senderID.Hex()
	c.UnreadCount[recipientID.Hex()]++
	c.IsArchived[senderID.Hex()] = false
	c.IsArchived[recipientID.Hex()] = false
	return nil
}

func (f *fakeConversationStore) ResetUnread(ctx context.Context, id, accountID primitive.ObjectID) error {
	c, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation not found")
	}
	f.resetUnreadFor = append(f.resetUnreadFor, accountID)
	c.UnreadCount[accountID.Hex()] = 0
	now := time.Now()
	c.LastRead[accountID.Hex()] = &now
	return nil
}

func (f *fakeConversationStore) DecrementUnread(ctx context.Context, id, accountID primitive.ObjectID) error {
	c, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation not found")
	}
	f.decrementUnreadFor = append(f.decrementUnreadFor, accountID)
	c.UnreadCount[accountID.Hex()]--
	now := time.Now()
	c.LastRead[accountID.Hex()] = &now
	return nil
}

func (f *fakeConversationStore) DeleteConversation(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.conversations[id]; !ok {
		return fmt.Errorf("conversation not found")
	}
	f.deleteCalls++
	delete(f.conversations, id)
	return nil
}

type fakeMessageStore struct {
	messages map[primitive.ObjectID]*models.Message
	clock    time.Time

	markedRead  []primitive.ObjectID
	purgedFor   []primitive.ObjectID
	updateCalls int
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		messages: map[primitive.ObjectID]*models.Message{},
		clock:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeMessageStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.ID = primitive.NewObjectID()
	f.clock = f.clock.Add(time.Minute)
	msg.CreatedAt = f.clock
	msg.UpdatedAt = f.clock
	copied := *msg
	f.messages[msg.ID] = &copied
	return msg, nil
}

func (f *fakeMessageStore) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message not found")
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMessageStore) GetMessages(ctx context.Context, conversationID primitive.ObjectID, limit int64, before time.Time) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageStore) MarkMessagesRead(ctx context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if m, ok := f.messages[id]; ok {
			m.IsRead = true
		}
	}
	f.markedRead = append(f.markedRead, ids...)
	return nil
}

func (f *fakeMessageStore) UpdateMessage(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	m, ok := f.messages[id]
	if !ok {
		return fmt.Errorf("message not found")
	}
	f.updateCalls++
	if v, ok := update["content"]; ok {
		m.Content = v.(string)
	}
	if v, ok := update["is_read"]; ok {
		m.IsRead = v.(bool)
	}
	return nil
}

func (f *fakeMessageStore) DeleteMessagesByConversation(ctx context.Context, conversationID primitive.ObjectID) error {
	f.purgedFor = append(f.purgedFor, conversationID)
	for id, m := range f.messages {
		if m.ConversationID == conversationID {
			delete(f.messages, id)
		}
	}
	return nil
}

type fakeConnectionStore struct {
	connections map[primitive.ObjectID]*models.Connection
	createCalls int
}

func newFakeConnectionStore(connections ...*models.Connection) *fakeConnectionStore {
	f := &fakeConnectionStore{connections: map[primitive.ObjectID]*models.Connection{}}
	for _, c := range connections {
		f.connections[c.ID] = c
	}
	return f
}

func (f *fakeConnectionStore) CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.ID = primitive.NewObjectID()
	conn.CreatedAt = time.Now()
	conn.UpdatedAt = conn.CreatedAt
	f.createCalls++
	f.connections[conn.ID] = conn
	copied := *conn
	return &copied, nil
}

func (f *fakeConnectionStore) GetConnectionByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error) {
	c, ok := f.connections[id]
	if !ok {
		return nil, fmt.Errorf("connection not found")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeConnectionStore) FindConnectionBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Connection, error) {
	for _, c := range f.connections {
		if c.HasParticipant(a) && c.HasParticipant(b) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("connection not found")
}

func (f *fakeConnectionStore) GetConnectionsByAccount(ctx context.Context, accountID primitive.ObjectID, status string) ([]models.Connection, error) {
	var out []models.Connection
	for _, c := range f.connections {
		if !c.HasParticipant(accountID) {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeConnectionStore) GetPendingRequests(ctx context.Context, accountID primitive.ObjectID) ([]models.Connection, error) {
	var out []models.Connection
	for _, c := range f.connections {
		if c.RecipientID == accountID && c.Status == models.ConnectionPending {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConnectionStore) UpdateConnectionStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	c, ok := f.connections[id]
	if !ok {
		return fmt.Errorf("connection not found")
	}
	c.Status = status
	return nil
}

func (f *fakeConnectionStore) DeleteConnection(ctx context.Context, id primitive.ObjectID) error {
	delete(f.connections, id)
	return nil
}

type fakeNotificationStore struct {
	notifications []models.Notification
}

func (f *fakeNotificationStore) CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	f.notifications = append(f.notifications, *notification)
	return notification, nil
}

func (f *fakeNotificationStore) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			copied := f.notifications[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("notification not found")
}

func (f *fakeNotificationStore) GetNotificationsByAccount(ctx context.Context, accountID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.AccountID != accountID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationStore) CountUnread(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.AccountID == accountID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id primitive.ObjectID, read bool) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].IsRead = read
			return nil
		}
	}
	return fmt.Errorf("notification not found")
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	var count int64
	for i := range f.notifications {
		if f.notifications[i].AccountID == accountID && !f.notifications[i].IsRead {
			f.notifications[i].IsRead = true
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications = append(f.notifications[:i], f.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification not found")
}

func (f *fakeNotificationStore) DeleteAllByAccount(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	var kept []models.Notification
	var count int64
	for _, n := range f.notifications {
		if n.AccountID == accountID {
			count++
			continue
		}
		kept = append(kept, n)
	}
	f.notifications = kept
	return count, nil
}

// typesFor lists the notification types delivered to an account in order.
func (f *fakeNotificationStore) typesFor(accountID primitive.ObjectID) []string {
	var out []string
	for _, n := range f.notifications {
		if n.AccountID == accountID {
			out = append(out, n.Type)
		}
	}
	return out
}
