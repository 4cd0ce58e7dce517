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

func TestSortConversationViews(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := base.Add(-2 * time.Hour)
	newer := base.Add(-10 * time.Minute)

	views := []models.ConversationView{
		{AccountName: "quiet"},
		{AccountName: "old", LastMessageTime: &older},
		{AccountName: "pinned", IsPinned: true, LastMessageTime: &older},
		{AccountName: "recent", LastMessageTime: &newer},
	}

	sortConversationViews(views)

	assert.Equal(t, "pinned", views[0].AccountName)
	assert.Equal(t, "recent", views[1].AccountName)
	assert.Equal(t, "old", views[2].AccountName)

	// Threads with no messages yet sink to the bottom.
	assert.Equal(t, "quiet", views[3].AccountName)
}

func TestReverseMessages(t *testing.T) {
	ids := []primitive.ObjectID{
		primitive.NewObjectID(),
		primitive.NewObjectID(),
		primitive.NewObjectID(),
	}
	messages := []models.Message{{ID: ids[0]}, {ID: ids[1]}, {ID: ids[2]}}

	reverseMessages(messages)

	assert.Equal(t, ids[2], messages[0].ID)
	assert.Equal(t, ids[1], messages[1].ID)
	assert.Equal(t, ids[0], messages[2].ID)
}

func TestReverseMessages_ShortSlices(t *testing.T) {
	reverseMessages(nil)

	single := []models.Message{{Content: "only"}}
	reverseMessages(single)
	assert.Equal(t, "only", single[0].Content)
}

func newChatFixture(t *testing.T, alice, bob *models.Account) (*ChatService, *fakeConversationStore, *fakeMessageStore, *fakeNotificationStore, primitive.ObjectID) {
	t.Helper()
	conversations := newFakeConversationStore()
	messages := newFakeMessageStore()
	accounts := newFakeAccountStore(alice, bob)
	notifications := &fakeNotificationStore{}
	service := NewChatService(conversations, messages, accounts, NewNotificationService(notifications, accounts))

	conv, err := service.GetOrCreateConversation(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	return service, conversations, messages, notifications, conv.ID
}

func testAccount(name string) *models.Account {
	return &models.Account{ID: primitive.NewObjectID(), DisplayName: name}
}

func TestSendMessageBookkeeping(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	service, conversations, _, notifications, convID := newChatFixture(t, alice, bob)
	ctx := context.Background()

	conversations.conversations[convID].IsArchived[bob.ID.Hex()] = true

	msg, err := service.SendMessage(ctx, convID, alice.ID, "see you at the gym", "")
	require.NoError(t, err)
	assert.Equal(t, "text", msg.ContentType)

	conv := conversations.conversations[convID]
	assert.Equal(t, "see you at the gym", conv.LastMessage)
	assert.Equal(t, alice.ID.Hex(), conv.LastMessageSenderID)
	assert.Equal(t, 1, conv.UnreadCount[bob.ID.Hex()])
	assert.Equal(t, 0, conv.UnreadCount[alice.ID.Hex()])
	assert.False(t, conv.IsArchived[alice.ID.Hex()])
	assert.False(t, conv.IsArchived[bob.ID.Hex()])

	assert.Equal(t, []string{"new_message"}, notifications.typesFor(bob.ID))
	assert.Empty(t, notifications.typesFor(alice.ID))
}

func TestGetMessagesMarksRead(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	service, conversations, messages, _, convID := newChatFixture(t, alice, bob)
	ctx := context.Background()

	first, err := service.SendMessage(ctx, convID, bob.ID, "morning", "")
	require.NoError(t, err)
	second, err := service.SendMessage(ctx, convID, bob.ID, "leg day?", "")
	require.NoError(t, err)
	_, err = service.SendMessage(ctx, convID, alice.ID, "always", "")
	require.NoError(t, err)

	page, err := service.GetMessages(ctx, convID, alice.ID, 50, time.Time{})
	require.NoError(t, err)
	require.Len(t, page, 3)

	assert.Equal(t, "morning", page[0].Content)
	assert.Equal(t, "leg day?", page[1].Content)
	assert.Equal(t, "always", page[2].Content)
	assert.True(t, page[0].IsRead)
	assert.True(t, page[1].IsRead)

	assert.ElementsMatch(t, []primitive.ObjectID{first.ID, second.ID}, messages.markedRead)
	assert.True(t, messages.messages[first.ID].IsRead)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, conversations.resetUnreadFor)
	assert.Equal(t, 0, conversations.conversations[convID].UnreadCount[alice.ID.Hex()])
}

func TestUpdateMessageReadIsOneWay(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	service, conversations, messages, _, convID := newChatFixture(t, alice, bob)
	ctx := context.Background()

	msg, err := service.SendMessage(ctx, convID, bob.ID, "spot me?", "")
	require.NoError(t, err)

	read, unread := true, false

	// The sender cannot touch the flag at all.
	_, err = service.UpdateMessage(ctx, msg.ID, bob.ID, nil, &read)
	require.Error(t, err)

	updated, err := service.UpdateMessage(ctx, msg.ID, alice.ID, nil, &read)
	require.NoError(t, err)
	assert.True(t, updated.IsRead)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, conversations.decrementUnreadFor)
	assert.Equal(t, 0, conversations.conversations[convID].UnreadCount[alice.ID.Hex()])

	_, err = service.UpdateMessage(ctx, msg.ID, alice.ID, nil, &unread)
	require.Error(t, err)
	assert.True(t, messages.messages[msg.ID].IsRead)

	// Re-reading a read message is a no-op, not a second decrement.
	again, err := service.UpdateMessage(ctx, msg.ID, alice.ID, nil, &read)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
	assert.Len(t, conversations.decrementUnreadFor, 1)
	assert.Equal(t, 1, messages.updateCalls)
}

func TestUpdateConversationMarkRead(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	service, conversations, _, _, convID := newChatFixture(t, alice, bob)
	ctx := context.Background()

	_, err := service.SendMessage(ctx, convID, bob.ID, "you up?", "")
	require.NoError(t, err)
	require.Equal(t, 1, conversations.conversations[convID].UnreadCount[alice.ID.Hex()])

	markRead := true
	require.NoError(t, service.UpdateConversation(ctx, convID, alice.ID, nil, nil, &markRead))

	conv := conversations.conversations[convID]
	assert.Equal(t, 0, conv.UnreadCount[alice.ID.Hex()])
	assert.NotNil(t, conv.LastRead[alice.ID.Hex()])
	assert.Equal(t, []primitive.ObjectID{alice.ID}, conversations.resetUnreadFor)

	pinned := true
	require.NoError(t, service.UpdateConversation(ctx, convID, alice.ID, &pinned, nil, nil))
	assert.True(t, conv.IsPinned[alice.ID.Hex()])
}

func TestDeleteConversationTwoPhase(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	service, conversations, messages, _, convID := newChatFixture(t, alice, bob)
	ctx := context.Background()

	_, err := service.SendMessage(ctx, convID, alice.ID, "hey", "")
	require.NoError(t, err)

	require.NoError(t, service.DeleteConversation(ctx, convID, alice.ID))

	conv, ok := conversations.conversations[convID]
	require.True(t, ok)
	assert.True(t, conv.IsArchived[alice.ID.Hex()])
	assert.Zero(t, conversations.deleteCalls)
	assert.Empty(t, messages.purgedFor)

	require.NoError(t, service.DeleteConversation(ctx, convID, bob.ID))

	_, ok = conversations.conversations[convID]
	assert.False(t, ok)
	assert.Equal(t, 1, conversations.deleteCalls)
	assert.Equal(t, []primitive.ObjectID{convID}, messages.purgedFor)
	assert.Empty(t, messages.messages)
}
