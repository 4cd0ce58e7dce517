package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChallengeStatusAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	challenge := Challenge{StartDate: start, EndDate: end}

	assert.Equal(t, ChallengeUpcoming, challenge.StatusAt(start.Add(-time.Hour)))
	assert.Equal(t, ChallengeActive, challenge.StatusAt(start))
	assert.Equal(t, ChallengeActive, challenge.StatusAt(start.AddDate(0, 0, 15)))
	assert.Equal(t, ChallengeActive, challenge.StatusAt(end))
	assert.Equal(t, ChallengeCompleted, challenge.StatusAt(end.Add(time.Hour)))
}

// The stats queries count activity rows by the persisted type field, so the
// document key has to match what the count filter uses.
func TestMilestoneActivityTypeKey(t *testing.T) {
	activity := MilestoneActivity{
		AccountID: primitive.NewObjectID(),
		Type:      "workout",
		Message:   "Logged a workout",
		CreatedAt: time.Now(),
	}

	raw, err := bson.Marshal(activity)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, "workout", doc["type"])
	assert.NotContains(t, doc, "action_type")
}
