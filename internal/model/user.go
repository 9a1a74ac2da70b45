package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the public-facing part of a user account.
type Profile struct {
	FirstName string `gorm:"column:first_name" json:"first_name"`
	LastName  string `gorm:"column:last_name" json:"last_name"`
	Avatar    string `gorm:"column:avatar;default:'https://via.placeholder.com/150'" json:"avatar"`
	Bio       string `gorm:"column:bio" json:"bio"`
	JobTitle  string `gorm:"column:job_title" json:"job_title"`
}

// Settings are per-user UI preferences.
type Settings struct {
	Theme         string `gorm:"column:theme;default:'light';check:theme IN ('light', 'dark')" json:"theme"`
	Notifications bool   `gorm:"column:notifications;default:true" json:"notifications"`
	Language      string `gorm:"column:language;default:'en'" json:"language"`
}

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	Profile        Profile   `gorm:"embedded"`
	Settings       Settings  `gorm:"embedded"`

	// Role is the global, informational role. Project permissions are
	// governed by collaborator roles, not by this field.
	Role string `gorm:"not null;default:'user';check:role IN ('user', 'team_leader', 'admin')"`

	LastLogin *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
