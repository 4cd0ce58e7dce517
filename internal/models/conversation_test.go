package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConversationParticipants(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	conv := Conversation{ParticipantIDs: []primitive.ObjectID{alice, bob}}

	assert.True(t, conv.HasParticipant(alice))
	assert.True(t, conv.HasParticipant(bob))
	assert.False(t, conv.HasParticipant(stranger))

	assert.Equal(t, bob, conv.OtherParticipant(alice))
	assert.Equal(t, alice, conv.OtherParticipant(bob))
	assert.Equal(t, primitive.NilObjectID, conv.OtherParticipant(stranger))
}

func TestConnectionParticipants(t *testing.T) {
	requester := primitive.NewObjectID()
	recipient := primitive.NewObjectID()

	conn := Connection{
		ParticipantIDs: []primitive.ObjectID{requester, recipient},
		RequesterID:    requester,
		RecipientID:    recipient,
		Status:         ConnectionPending,
	}

	assert.True(t, conn.HasParticipant(requester))
	assert.False(t, conn.HasParticipant(primitive.NewObjectID()))
	assert.Equal(t, recipient, conn.OtherParticipant(requester))
	assert.Equal(t, requester, conn.OtherParticipant(recipient))
}
