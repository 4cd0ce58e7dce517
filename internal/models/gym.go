package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gym is a facility record. MemberCount and TrainerCount are denormalized
// counters kept in step with the membership rows via atomic increments.
type Gym struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AdminID      primitive.ObjectID `bson:"admin_id" json:"admin_id"`
	Name         string             `bson:"name" json:"name"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Facilities   []string           `bson:"facilities,omitempty" json:"facilities,omitempty"`
	Hours        map[string]string  `bson:"hours,omitempty" json:"hours,omitempty"`
	ContactEmail string             `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	ContactPhone string             `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Photos       []string           `bson:"photos,omitempty" json:"photos,omitempty"`
	MemberCount  int                `bson:"member_count" json:"member_count"`
	TrainerCount int                `bson:"trainer_count" json:"trainer_count"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// GymMember is a membership row. Document id is "{gymId}_{accountId}".
type GymMember struct {
	ID                   string             `bson:"_id" json:"-"`
	AccountID            primitive.ObjectID `bson:"account_id" json:"account_id"`
	GymID                primitive.ObjectID `bson:"gym_id" json:"gym_id"`
	MembershipType       string             `bson:"membership_type" json:"membership_type"`
	MembershipExpiration *time.Time         `bson:"membership_expiration,omitempty" json:"membership_expiration,omitempty"`
	CheckinCount         int                `bson:"checkin_count" json:"checkin_count"`
	LastCheckin          *time.Time         `bson:"last_checkin,omitempty" json:"last_checkin,omitempty"`
	JoinDate             time.Time          `bson:"join_date" json:"join_date"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`

	// Joined from the account record for roster listings.
	DisplayName string `bson:"-" json:"display_name,omitempty"`
	PhotoURL    string `bson:"-" json:"photo_url,omitempty"`
}

// Checkin records one gym visit.
type Checkin struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID  primitive.ObjectID `bson:"account_id" json:"account_id"`
	GymID      primitive.ObjectID `bson:"gym_id" json:"gym_id"`
	Date       string             `bson:"date" json:"date"`
	Hour       int                `bson:"hour" json:"hour"`
	Facilities []string           `bson:"facilities,omitempty" json:"facilities,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// GymStats aggregates a gym's activity.
type GymStats struct {
	MemberCount       int            `json:"member_count"`
	ActiveMembers     int            `json:"active_members"`
	ActiveToday       int            `json:"active_today"`
	TrainerCount      int            `json:"trainer_count"`
	TotalCheckins     int            `json:"total_checkins"`
	PopularHours      map[int]int    `json:"popular_hours"`
	PopularFacilities map[string]int `json:"popular_facilities"`
}

// TrainerStats aggregates a trainer's activity.
type TrainerStats struct {
	Clients  int     `json:"clients"`
	Sessions int     `json:"sessions"`
	Rating   float64 `json:"rating"`
}
