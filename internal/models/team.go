package models

import "time"

// Team is a named group of users that can own projects.
type Team struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	OwnerID     uint      `gorm:"index:idx_teams_owner_public;not null" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	IsPublic    bool      `gorm:"index:idx_teams_owner_public" json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Memberships []TeamMembership `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Team) TableName() string { return "teams" }

// TeamMembership records a user's role within a team.
type TeamMembership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TeamID   uint      `gorm:"uniqueIndex:idx_team_user;not null" json:"team_id"`
	UserID   uint      `gorm:"uniqueIndex:idx_team_user;not null" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role     string    `gorm:"size:20;default:viewer" json:"role"` // owner, editor, viewer, commenter
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (TeamMembership) TableName() string { return "team_memberships" }
