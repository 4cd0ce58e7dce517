package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Requirements describes what unlocks an achievement or completes a challenge.
type Requirements struct {
	ActionType  string `bson:"action_type,omitempty" json:"action_type,omitempty"`
	TargetValue int    `bson:"target_value" json:"target_value"`
}

// Achievement is a static catalog entry.
type Achievement struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	Icon         string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Requirements Requirements       `bson:"requirements" json:"requirements"`
	Points       int                `bson:"points" json:"points"`
}

// AchievementProgress is one account's accumulating state toward an
// achievement. The document id is "{accountId}_{achievementId}" so at most
// one record can exist per pair.
type AchievementProgress struct {
	ID            string             `bson:"_id" json:"-"`
	AccountID     primitive.ObjectID `bson:"account_id" json:"account_id"`
	AchievementID primitive.ObjectID `bson:"achievement_id" json:"achievement_id"`
	Progress      int                `bson:"progress" json:"progress"`
	MaxProgress   int                `bson:"max_progress" json:"max_progress"`
	IsUnlocked    bool               `bson:"is_unlocked" json:"is_unlocked"`
	UnlockedAt    *time.Time         `bson:"unlocked_at,omitempty" json:"unlocked_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Challenge statuses derived from its date window, never persisted.
const (
	ChallengeUpcoming  = "upcoming"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
)

// Challenge is a time-boxed community goal.
type Challenge struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	Category         string             `bson:"category" json:"category"`
	Icon             string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Requirements     Requirements       `bson:"requirements" json:"requirements"`
	Points           int                `bson:"points" json:"points"`
	StartDate        time.Time          `bson:"start_date" json:"start_date"`
	EndDate          time.Time          `bson:"end_date" json:"end_date"`
	ParticipantCount int                `bson:"participant_count" json:"participant_count"`
	CreatedBy        string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// StatusAt derives the challenge status from its date window.
func (c *Challenge) StatusAt(now time.Time) string {
	if c.StartDate.After(now) {
		return ChallengeUpcoming
	}
	if c.EndDate.Before(now) {
		return ChallengeCompleted
	}
	return ChallengeActive
}

// ChallengeParticipation is one account's joined state for a challenge.
// Document id is "{challengeId}_{accountId}".
type ChallengeParticipation struct {
	ID          string             `bson:"_id" json:"-"`
	AccountID   primitive.ObjectID `bson:"account_id" json:"account_id"`
	AccountName string             `bson:"account_name" json:"account_name"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	ChallengeID primitive.ObjectID `bson:"challenge_id" json:"challenge_id"`
	Progress    int                `bson:"progress" json:"progress"`
	Status      string             `bson:"status" json:"status"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	LastUpdated time.Time          `bson:"last_updated" json:"last_updated"`
}

// MilestoneActivity is a feed entry for gamification events.
type MilestoneActivity struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	AccountID  primitive.ObjectID     `bson:"account_id" json:"account_id"`
	Type       string                 `bson:"type" json:"type"`
	Message    string                 `bson:"message" json:"message"`
	TargetID   string                 `bson:"target_id,omitempty" json:"target_id,omitempty"`
	TargetType string                 `bson:"target_type,omitempty" json:"target_type,omitempty"`
	Data       map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}

// AchievementView is an achievement merged with the viewer's progress.
type AchievementView struct {
	ID                 primitive.ObjectID `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	Icon               string             `json:"icon,omitempty"`
	Requirements       Requirements       `json:"requirements"`
	Points             int                `json:"points"`
	IsUnlocked         bool               `json:"is_unlocked"`
	Progress           int                `json:"progress"`
	MaxProgress        int                `json:"max_progress"`
	ProgressPercentage float64            `json:"progress_percentage"`
	UnlockedAt         *time.Time         `json:"unlocked_at,omitempty"`
}

// ChallengeView is a challenge merged with the viewer's participation.
type ChallengeView struct {
	ID                 primitive.ObjectID `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	Icon               string             `json:"icon,omitempty"`
	Requirements       Requirements       `json:"requirements"`
	Points             int                `json:"points"`
	Status             string             `json:"status"`
	Progress           int                `json:"progress"`
	MaxProgress        int                `json:"max_progress"`
	ProgressPercentage float64            `json:"progress_percentage"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	Participants       int                `json:"participants"`
	IsJoined           bool               `json:"is_joined"`
	CreatedBy          string             `json:"created_by,omitempty"`
}

// LeaderboardEntry is one row of the global ranking.
type LeaderboardEntry struct {
	AccountID    primitive.ObjectID `json:"account_id"`
	DisplayName  string             `json:"display_name"`
	PhotoURL     string             `json:"photo_url,omitempty"`
	Level        int                `json:"level"`
	Points       int                `json:"points"`
	Achievements int                `json:"achievements"`
	Position     int                `json:"position"`
}

// Leaderboard is one page of the global ranking plus the caller's own
// absolute rank, which does not depend on the page window.
type Leaderboard struct {
	Entries    []LeaderboardEntry `json:"entries"`
	MyPosition int                `json:"my_position"`
	Total      int                `json:"total"`
}

// MilestoneSummary is the dashboard block for one account.
type MilestoneSummary struct {
	Level               int                 `json:"level"`
	TotalPoints         int                 `json:"total_points"`
	PointsForNextLevel  int                 `json:"points_for_next_level"`
	PointsProgress      float64             `json:"points_progress"`
	Achievements        []AchievementView   `json:"achievements"`
	ChallengesActive    []ChallengeView     `json:"challenges_active"`
	ChallengesCompleted []ChallengeView     `json:"challenges_completed"`
	RecentActivity      []MilestoneActivity `json:"recent_activity"`
}
