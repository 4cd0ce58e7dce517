package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
)

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(models.ConnectionPending, models.ConnectionAccepted))
	assert.True(t, ValidTransition(models.ConnectionPending, models.ConnectionRejected))
	assert.True(t, ValidTransition(models.ConnectionPending, models.ConnectionBlocked))

	assert.False(t, ValidTransition(models.ConnectionPending, models.ConnectionPending))
	assert.False(t, ValidTransition(models.ConnectionPending, "cancelled"))
}

func TestValidTransition_TerminalStates(t *testing.T) {
	terminal := []string{
		models.ConnectionAccepted,
		models.ConnectionRejected,
		models.ConnectionBlocked,
	}
	targets := []string{
		models.ConnectionPending,
		models.ConnectionAccepted,
		models.ConnectionRejected,
		models.ConnectionBlocked,
	}

	for _, from := range terminal {
		for _, to := range targets {
			assert.False(t, ValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func newConnectionFixture(accounts *fakeAccountStore, connections *fakeConnectionStore) (*ConnectionService, *fakeNotificationStore) {
	notifications := &fakeNotificationStore{}
	notifier := NewNotificationService(notifications, accounts)
	milestones := NewMilestoneService(newFakeMilestoneStore(), accounts, notifier)
	return NewConnectionService(connections, accounts, notifier, milestones), notifications
}

func TestSendRequestDuplicateReturnsExisting(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	connections := newFakeConnectionStore()
	service, notifications := newConnectionFixture(newFakeAccountStore(alice, bob), connections)
	ctx := context.Background()

	first, err := service.SendRequest(ctx, alice.ID, bob.ID, "train together?")
	require.NoError(t, err)
	second, err := service.SendRequest(ctx, alice.ID, bob.ID, "again")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, connections.createCalls)
	assert.Equal(t, []string{"connection_request"}, notifications.typesFor(bob.ID))
}

func TestSendRequestRefusedWhenBlocked(t *testing.T) {
	alice, bob := testAccount("Alice"), testAccount("Bob")
	connections := newFakeConnectionStore(&models.Connection{
		ID:             primitive.NewObjectID(),
		ParticipantIDs: []primitive.ObjectID{bob.ID, alice.ID},
		RequesterID:    bob.ID,
		RecipientID:    alice.ID,
		Status:         models.ConnectionBlocked,
	})
	service, notifications := newConnectionFixture(newFakeAccountStore(alice, bob), connections)

	_, err := service.SendRequest(context.Background(), alice.ID, bob.ID, "")
	require.Error(t, err)
	assert.Zero(t, connections.createCalls)
	assert.Empty(t, notifications.typesFor(bob.ID))
}
