package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles. The role is fixed at registration and decides which parts
// of the API an account may use.
const (
	RoleUser     = "user"
	RoleTrainer  = "trainer"
	RoleGymAdmin = "gym_admin"
)

// Account is the canonical identity record. All three roles live in one
// collection with Role as the discriminant, so an id can never exist twice
// across the role partitions.
type Account struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email            string              `bson:"email" json:"email"`
	HashedPassword   string              `bson:"hashed_password" json:"-"`
	DisplayName      string              `bson:"display_name" json:"display_name"`
	PhotoURL         string              `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Role             string              `bson:"role" json:"role"`
	GymID            *primitive.ObjectID `bson:"gym_id,omitempty" json:"gym_id,omitempty"`
	Interests        []string            `bson:"interests,omitempty" json:"interests,omitempty"`
	Level            int                 `bson:"level" json:"level"`
	ExperiencePoints int                 `bson:"experience_points" json:"experience_points"`
	AchievementCount int                 `bson:"achievement_count" json:"achievement_count"`
	IsOnline         bool                `bson:"is_online" json:"is_online"`
	Status           string              `bson:"status" json:"status"`

	// Trainer-only fields.
	Specialities []string       `bson:"specialities,omitempty" json:"specialities,omitempty"`
	Rating       float64        `bson:"rating,omitempty" json:"rating,omitempty"`
	Bio          string         `bson:"bio,omitempty" json:"bio,omitempty"`
	Availability []SessionSlot  `bson:"availability,omitempty" json:"availability,omitempty"`

	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
	LastActive time.Time `bson:"last_active" json:"last_active"`
}

// SessionSlot is a trainer availability window.
type SessionSlot struct {
	ID        string    `bson:"id" json:"id"`
	DayOfWeek string    `bson:"day_of_week" json:"day_of_week"`
	StartTime string    `bson:"start_time" json:"start_time"`
	EndTime   string    `bson:"end_time" json:"end_time"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// PublicAccount is the profile shape exposed to other accounts.
type PublicAccount struct {
	ID          primitive.ObjectID `json:"id"`
	DisplayName string             `json:"display_name"`
	PhotoURL    string             `json:"photo_url,omitempty"`
	Role        string             `json:"role"`
	Level       int                `json:"level"`
	IsOnline    bool               `json:"is_online"`
	Status      string             `json:"status,omitempty"`
	Interests   []string           `json:"interests,omitempty"`
}

// PublicProfile converts an account to its externally visible shape.
func (a *Account) PublicProfile() PublicAccount {
	return PublicAccount{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		Role:        a.Role,
		Level:       a.Level,
		IsOnline:    a.IsOnline,
		Status:      a.Status,
		Interests:   a.Interests,
	}
}

// AccountStats is the derived per-account counters block.
type AccountStats struct {
	Posts        int `json:"posts"`
	Connections  int `json:"connections"`
	Workouts     int `json:"workouts"`
	Level        int `json:"level"`
	Achievements int `json:"achievements"`
}
